package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/notepolish/internal/rewriting"
	"github.com/jonathan/notepolish/internal/server/middleware"
	"github.com/jonathan/notepolish/internal/transcription"
	"github.com/jonathan/notepolish/internal/types"
)

const (
	// MaxTextLength is the longest note accepted by the rephrase endpoint.
	MaxTextLength = 10000

	// DefaultAudioFilename names base64 uploads that arrive without one.
	DefaultAudioFilename = "recording.m4a"

	multipartMemory = 8 << 20
	formOverhead    = 1 << 20
)

type rephraseRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
	Tone string `json:"tone" validate:"omitempty,tone"`
}

type processBase64Request struct {
	Audio    string `json:"audio" validate:"required"`
	Tone     string `json:"tone"`
	Filename string `json:"filename"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("tone", func(fl validator.FieldLevel) bool {
		return types.ToneType(fl.Field().String()).IsValid()
	})
	return v
}

// handleTranscribe converts an uploaded audio file to text.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.readAudioUpload(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	result, err := s.enhancer.Transcribe(r.Context(), data, filename)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.successResponse(w, result)
}

// handleRephrase enhances a text note.
func (s *Server) handleRephrase(w http.ResponseWriter, r *http.Request) {
	var req rephraseRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, r, extractValidationErrors(err))
		return
	}

	result, err := s.enhancer.Rephrase(r.Context(), rewriting.Request{
		Text:   req.Text,
		Tone:   types.ParseTone(req.Tone),
		UserID: middleware.OptionalUserID(r),
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.successResponse(w, result)
}

// handleProcess transcribes an uploaded audio file and enhances the transcript.
// An unknown tone falls back to the default.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.readAudioUpload(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	result, err := s.enhancer.ProcessAudio(r.Context(), rewriting.AudioRequest{
		Data:     data,
		Filename: filename,
		Tone:     types.ParseTone(r.FormValue("tone")),
		UserID:   middleware.OptionalUserID(r),
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.successResponse(w, result)
}

// handleProcessBase64 is handleProcess for clients that cannot send
// multipart bodies.
func (s *Server) handleProcessBase64(w http.ResponseWriter, r *http.Request) {
	var req processBase64Request
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, r, extractValidationErrors(err))
		return
	}

	data, err := decodeBase64Audio(req.Audio)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if int64(len(data)) > s.maxUploadBytes {
		s.errorResponse(w, r, ErrPayloadTooLarge)
		return
	}

	filename := req.Filename
	if strings.TrimSpace(filename) == "" {
		filename = DefaultAudioFilename
	}

	result, err := s.enhancer.ProcessAudio(r.Context(), rewriting.AudioRequest{
		Data:     data,
		Filename: filename,
		Tone:     types.ParseTone(req.Tone),
		UserID:   middleware.OptionalUserID(r),
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.successResponse(w, result)
}

// readAudioUpload reads the multipart "audio" field, enforcing the size
// limit and the accepted content types.
func (s *Server) readAudioUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", ErrPayloadTooLarge
		}
		return nil, "", &ErrValidation{Field: "audio", Message: "Audio file required"}
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("audio")
	if err != nil {
		return nil, "", &ErrValidation{Field: "audio", Message: "Audio file required"}
	}
	defer func() {
		_ = file.Close()
	}()

	if header.Size > s.maxUploadBytes {
		return nil, "", ErrPayloadTooLarge
	}
	if !transcription.IsAllowedMIMEType(header.Header.Get("Content-Type")) {
		return nil, "", &ErrValidation{Field: "audio", Message: "Invalid file type. Only audio files are allowed."}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	return data, header.Filename, nil
}

// decodeJSON reads a JSON body no larger than the base64-encoded upload limit.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes*4/3+formOverhead)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrPayloadTooLarge
		}
		return &ErrValidation{Field: "body", Message: "Invalid JSON body"}
	}
	return nil
}

// decodeBase64Audio accepts standard or unpadded base64, optionally behind
// a data URI prefix.
func decodeBase64Audio(raw string) ([]byte, error) {
	payload := strings.TrimSpace(raw)
	if strings.HasPrefix(payload, "data:") {
		if _, after, ok := strings.Cut(payload, ","); ok {
			payload = after
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	}
	if err != nil || len(data) == 0 {
		return nil, &ErrValidation{Field: "audio", Message: "Base64 audio data required"}
	}
	return data, nil
}

// extractValidationErrors converts the first validator failure into an
// ErrValidation with a client-facing message.
func extractValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return &ErrValidation{Field: "body", Message: "Invalid request"}
	}

	ve := validationErrors[0]
	field := ve.Field()
	switch {
	case field == "text" && ve.Tag() == "required":
		return &ErrValidation{Field: field, Message: "Text is required"}
	case field == "text" && ve.Tag() == "max":
		return &ErrValidation{Field: field, Message: fmt.Sprintf("Text too long. Maximum %d characters.", MaxTextLength)}
	case field == "tone":
		return &ErrValidation{Field: field, Message: "Invalid tone. Must be one of: " + toneList()}
	case field == "audio":
		return &ErrValidation{Field: field, Message: "Base64 audio data required"}
	default:
		return &ErrValidation{Field: field, Message: fmt.Sprintf("validation error: %s - %s", field, ve.Tag())}
	}
}

func toneList() string {
	tones := types.AllTones()
	names := make([]string, len(tones))
	for i, t := range tones {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

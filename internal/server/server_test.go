package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/notepolish/internal/config"
	"github.com/jonathan/notepolish/internal/rewriting"
	"github.com/jonathan/notepolish/internal/server/ratelimit"
	"github.com/jonathan/notepolish/internal/transcription"
	"github.com/jonathan/notepolish/internal/types"
	"github.com/jonathan/notepolish/internal/usage"
)

type fakeEnhancer struct {
	mu            sync.Mutex
	rephraseReqs  []rewriting.Request
	audioReqs     []rewriting.AudioRequest
	transcribed   [][]byte
	filenames     []string
	err           error
	transcribeErr error
}

func (f *fakeEnhancer) Rephrase(_ context.Context, req rewriting.Request) (*types.RephrasingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rephraseReqs = append(f.rephraseReqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &types.RephrasingResult{
		OriginalText:   req.Text,
		RephrasedText:  "Polished: " + req.Text,
		Tone:           req.Tone,
		DetectedIntent: types.IntentGeneral,
		Suggestions:    []types.Suggestion{},
	}, nil
}

func (f *fakeEnhancer) Transcribe(_ context.Context, data []byte, filename string) (*types.TranscriptionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcribed = append(f.transcribed, data)
	f.filenames = append(f.filenames, filename)
	if f.transcribeErr != nil {
		return nil, f.transcribeErr
	}
	return &types.TranscriptionResult{Text: "hello from audio", Language: "en", Duration: 1.5}, nil
}

func (f *fakeEnhancer) ProcessAudio(_ context.Context, req rewriting.AudioRequest) (*types.ProcessResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audioReqs = append(f.audioReqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &types.ProcessResult{
		Transcription: &types.TranscriptionResult{Text: "hello from audio", Language: "en"},
		Rephrasing: &types.RephrasingResult{
			OriginalText:  "hello from audio",
			RephrasedText: "Hello from audio.",
			Tone:          req.Tone,
			Suggestions:   []types.Suggestion{},
		},
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Detail  string          `json:"detail"`
	Limit   int             `json:"limit"`
	Used    int             `json:"used"`
}

func newTestServer(t *testing.T, enhancer *fakeEnhancer, cfg Config, deps Deps) *Server {
	t.Helper()
	deps.Enhancer = enhancer
	if deps.Logger == nil {
		logger, _ := logtest.NewNullLogger()
		deps.Logger = logger
	}
	s, err := New(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

func serve(s *Server, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func jsonRequest(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, path string, contentType string, audio []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if audio != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="audio"; filename="note.mp3"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNew_RequiresEnhancer(t *testing.T) {
	_, err := New(Config{Port: 3000}, Deps{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeEnhancer{}, Config{}, Deps{})

	rec, _ := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	_, err := time.Parse(time.RFC3339, body["timestamp"])
	assert.NoError(t, err)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("notepolish_enhancements_total 1\n"))
	})

	s := newTestServer(t, &fakeEnhancer{}, Config{}, Deps{MetricsHandler: metrics})
	rec, _ := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notepolish_enhancements_total")

	without := newTestServer(t, &fakeEnhancer{}, Config{}, Deps{})
	rec, _ = serve(without, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRephrase_Success(t *testing.T) {
	fake := &fakeEnhancer{}
	s := newTestServer(t, fake, Config{}, Deps{})

	rec, env := serve(s, jsonRequest(t, "/transcribe/rephrase", map[string]string{
		"text": "we shipped the thing",
		"tone": "casual",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var result types.RephrasingResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "Polished: we shipped the thing", result.RephrasedText)
	assert.Equal(t, types.ToneCasual, result.Tone)

	require.Len(t, fake.rephraseReqs, 1)
	assert.Nil(t, fake.rephraseReqs[0].UserID)
}

func TestRephrase_DefaultTone(t *testing.T) {
	fake := &fakeEnhancer{}
	s := newTestServer(t, fake, Config{}, Deps{})

	rec, _ := serve(s, jsonRequest(t, "/transcribe/rephrase", map[string]string{"text": "hello"}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fake.rephraseReqs, 1)
	assert.Equal(t, types.ToneProfessional, fake.rephraseReqs[0].Tone)
}

func TestRephrase_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		raw     string
		wantMsg string
	}{
		{name: "missing text", body: map[string]string{"tone": "casual"}, wantMsg: "Text is required"},
		{name: "empty text", body: map[string]string{"text": ""}, wantMsg: "Text is required"},
		{
			name:    "too long",
			body:    map[string]string{"text": strings.Repeat("a", MaxTextLength+1)},
			wantMsg: "Text too long. Maximum 10000 characters.",
		},
		{
			name:    "invalid tone",
			body:    map[string]string{"text": "hello", "tone": "pirate"},
			wantMsg: "Invalid tone. Must be one of: professional, casual, concise, email, meeting_notes, original",
		},
		{name: "malformed json", raw: "{not json", wantMsg: "Invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEnhancer{}
			s := newTestServer(t, fake, Config{}, Deps{})

			req := httptest.NewRequest(http.MethodPost, "/transcribe/rephrase", strings.NewReader(tt.raw))
			if tt.body != nil {
				req = jsonRequest(t, "/transcribe/rephrase", tt.body)
			}

			rec, env := serve(s, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, CodeInvalidRequest, env.Code)
			assert.Equal(t, tt.wantMsg, env.Error)
			assert.Empty(t, fake.rephraseReqs)
		})
	}
}

func TestRephrase_MaxLengthAccepted(t *testing.T) {
	fake := &fakeEnhancer{}
	s := newTestServer(t, fake, Config{}, Deps{})

	rec, _ := serve(s, jsonRequest(t, "/transcribe/rephrase", map[string]string{
		"text": strings.Repeat("a", MaxTextLength),
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRephrase_IdentifiesCaller(t *testing.T) {
	jwtService := setupTestJWTService(t, 1)
	userID := uuid.New()
	token, err := jwtService.GenerateToken(userID)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantUser *uuid.UUID
	}{
		{name: "valid token", header: "Bearer " + token, wantUser: &userID},
		{name: "no header", header: "", wantUser: nil},
		{name: "bad token is anonymous", header: "Bearer not-a-token", wantUser: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEnhancer{}
			s := newTestServer(t, fake, Config{}, Deps{Tokens: jwtService.AsTokenValidator()})

			req := jsonRequest(t, "/transcribe/rephrase", map[string]string{"text": "hello"})
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec, _ := serve(s, req)
			require.Equal(t, http.StatusOK, rec.Code)
			require.Len(t, fake.rephraseReqs, 1)
			assert.Equal(t, tt.wantUser, fake.rephraseReqs[0].UserID)
		})
	}
}

func TestRephrase_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{name: "whitespace text", err: rewriting.ErrEmptyText, wantStatus: http.StatusBadRequest, wantCode: CodeInvalidRequest},
		{
			name:       "generator failure",
			err:        &rewriting.GenerationError{Provider: "groq", Message: "503 from upstream"},
			wantStatus: http.StatusBadGateway,
			wantCode:   CodeUpstreamFailure,
			wantDetail: "generation failed (groq): 503 from upstream",
		},
		{
			name:       "wrapped transcription failure",
			err:        fmt.Errorf("process audio: %w", &transcription.Error{Message: "whisper returned 500"}),
			wantStatus: http.StatusBadGateway,
			wantCode:   CodeUpstreamFailure,
			wantDetail: "transcription error: whisper returned 500",
		},
		{
			name:       "configuration failure",
			err:        &config.Error{Message: `API key for provider "groq" is not configured`},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   CodeConfigurationError,
			wantDetail: `config error: API key for provider "groq" is not configured`,
		},
		{name: "internal failure", err: errors.New("disk on fire"), wantStatus: http.StatusInternalServerError, wantCode: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeEnhancer{err: tt.err}, Config{}, Deps{})

			rec, env := serve(s, jsonRequest(t, "/transcribe/rephrase", map[string]string{"text": "   "}))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, env.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantDetail, env.Detail)
			assert.NotContains(t, env.Error, "503 from upstream")
			assert.NotContains(t, rec.Body.String(), "disk on fire")
		})
	}
}

func TestLimitReachedResponse(t *testing.T) {
	fake := &fakeEnhancer{err: &usage.LimitReachedError{Limit: 5, Used: 5}}
	s := newTestServer(t, fake, Config{}, Deps{})

	rec, env := serve(s, jsonRequest(t, "/transcribe/process-base64", map[string]string{
		"audio": base64.StdEncoding.EncodeToString([]byte("audio-bytes")),
	}))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Monthly recording limit reached", env.Error)
	assert.Equal(t, CodeLimitReached, env.Code)
	assert.Equal(t, 5, env.Limit)
	assert.Equal(t, 5, env.Used)
}

func TestUpstreamFailureIsLoggedAsError(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	fake := &fakeEnhancer{err: &rewriting.GenerationError{Provider: "groq", Message: "timeout"}}
	s := newTestServer(t, fake, Config{}, Deps{Logger: logger})

	rec, _ := serve(s, jsonRequest(t, "/transcribe/rephrase", map[string]string{"text": "hello"}))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var levels []logrus.Level
	for _, entry := range hook.AllEntries() {
		levels = append(levels, entry.Level)
	}
	assert.Contains(t, levels, logrus.ErrorLevel)
	assert.Contains(t, levels, logrus.WarnLevel, "request logger flags 5xx responses")
}

func TestTranscribe(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fake := &fakeEnhancer{}
		s := newTestServer(t, fake, Config{}, Deps{})

		rec, env := serve(s, multipartRequest(t, "/transcribe", "audio/mpeg", []byte("ID3 fake mp3"), nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var result types.TranscriptionResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, "hello from audio", result.Text)

		require.Len(t, fake.transcribed, 1)
		assert.Equal(t, []byte("ID3 fake mp3"), fake.transcribed[0])
		assert.Equal(t, "note.mp3", fake.filenames[0])
		assert.Empty(t, fake.rephraseReqs)
	})

	t.Run("missing file", func(t *testing.T) {
		s := newTestServer(t, &fakeEnhancer{}, Config{}, Deps{})

		rec, env := serve(s, multipartRequest(t, "/transcribe", "", nil, map[string]string{"tone": "casual"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Audio file required", env.Error)
	})

	t.Run("not multipart", func(t *testing.T) {
		s := newTestServer(t, &fakeEnhancer{}, Config{}, Deps{})

		rec, env := serve(s, jsonRequest(t, "/transcribe", map[string]string{"audio": "x"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Audio file required", env.Error)
	})

	t.Run("wrong content type", func(t *testing.T) {
		fake := &fakeEnhancer{}
		s := newTestServer(t, fake, Config{}, Deps{})

		rec, env := serve(s, multipartRequest(t, "/transcribe", "image/png", []byte("png"), nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid file type. Only audio files are allowed.", env.Error)
		assert.Empty(t, fake.transcribed)
	})

	t.Run("too large", func(t *testing.T) {
		fake := &fakeEnhancer{}
		s := newTestServer(t, fake, Config{MaxUploadBytes: 16}, Deps{})

		rec, env := serve(s, multipartRequest(t, "/transcribe", "audio/wav", bytes.Repeat([]byte("a"), 1024), nil))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, CodePayloadTooLarge, env.Code)
		assert.Empty(t, fake.transcribed)
	})
}

func TestProcess_Multipart(t *testing.T) {
	tests := []struct {
		name     string
		tone     string
		wantTone types.ToneType
	}{
		{name: "explicit tone", tone: "meeting_notes", wantTone: types.ToneMeetingNotes},
		{name: "unknown tone falls back", tone: "pirate", wantTone: types.ToneProfessional},
		{name: "no tone", tone: "", wantTone: types.ToneProfessional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEnhancer{}
			s := newTestServer(t, fake, Config{}, Deps{})

			rec, env := serve(s, multipartRequest(t, "/transcribe/process", "audio/webm; codecs=opus", []byte("webm"), map[string]string{"tone": tt.tone}))
			require.Equal(t, http.StatusOK, rec.Code)

			var result types.ProcessResult
			require.NoError(t, json.Unmarshal(env.Data, &result))
			require.NotNil(t, result.Transcription)
			require.NotNil(t, result.Rephrasing)

			require.Len(t, fake.audioReqs, 1)
			assert.Equal(t, tt.wantTone, fake.audioReqs[0].Tone)
			assert.Equal(t, []byte("webm"), fake.audioReqs[0].Data)
		})
	}
}

func TestProcessBase64(t *testing.T) {
	audio := []byte("fake m4a payload")
	encoded := base64.StdEncoding.EncodeToString(audio)

	t.Run("defaults", func(t *testing.T) {
		fake := &fakeEnhancer{}
		s := newTestServer(t, fake, Config{}, Deps{})

		rec, env := serve(s, jsonRequest(t, "/transcribe/process-base64", map[string]string{
			"audio": encoded,
			"tone":  "not-a-tone",
		}))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)

		require.Len(t, fake.audioReqs, 1)
		assert.Equal(t, audio, fake.audioReqs[0].Data)
		assert.Equal(t, DefaultAudioFilename, fake.audioReqs[0].Filename)
		assert.Equal(t, types.ToneProfessional, fake.audioReqs[0].Tone)
	})

	t.Run("data uri and filename", func(t *testing.T) {
		fake := &fakeEnhancer{}
		s := newTestServer(t, fake, Config{}, Deps{})

		rec, _ := serve(s, jsonRequest(t, "/transcribe/process-base64", map[string]string{
			"audio":    "data:audio/wav;base64," + encoded,
			"tone":     "email",
			"filename": "memo.wav",
		}))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, fake.audioReqs, 1)
		assert.Equal(t, audio, fake.audioReqs[0].Data)
		assert.Equal(t, "memo.wav", fake.audioReqs[0].Filename)
		assert.Equal(t, types.ToneEmail, fake.audioReqs[0].Tone)
	})

	t.Run("invalid payloads", func(t *testing.T) {
		for _, body := range []map[string]string{
			{},
			{"audio": ""},
			{"audio": "!!!not base64!!!"},
		} {
			fake := &fakeEnhancer{}
			s := newTestServer(t, fake, Config{}, Deps{})

			rec, env := serve(s, jsonRequest(t, "/transcribe/process-base64", body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Base64 audio data required", env.Error)
			assert.Empty(t, fake.audioReqs)
		}
	})

	t.Run("too large", func(t *testing.T) {
		fake := &fakeEnhancer{}
		s := newTestServer(t, fake, Config{MaxUploadBytes: 4}, Deps{})

		rec, _ := serve(s, jsonRequest(t, "/transcribe/process-base64", map[string]string{"audio": encoded}))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Empty(t, fake.audioReqs)
	})
}

func TestRateLimit(t *testing.T) {
	cfg := &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  ratelimit.DefaultLimit,
		DefaultWindow: ratelimit.DefaultWindow,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/transcribe/rephrase", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
		},
	}
	fake := &fakeEnhancer{}
	s := newTestServer(t, fake, Config{RateLimit: cfg}, Deps{})

	rec, _ := serve(s, jsonRequest(t, "/transcribe/rephrase", map[string]string{"text": "one"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec, env := serve(s, jsonRequest(t, "/transcribe/rephrase", map[string]string{"text": "two"}))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, CodeRateLimited, env.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Len(t, fake.rephraseReqs, 1)

	rec, _ = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health is never throttled")
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		wantHeader string
	}{
		{name: "wildcard", origins: []string{"*"}, origin: "https://app.example.com", wantHeader: "*"},
		{name: "unset means wildcard", origins: nil, origin: "https://app.example.com", wantHeader: "*"},
		{name: "listed origin echoed", origins: []string{"https://app.example.com"}, origin: "https://app.example.com", wantHeader: "https://app.example.com"},
		{name: "unlisted origin", origins: []string{"https://app.example.com"}, origin: "https://evil.example.com", wantHeader: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeEnhancer{}, Config{CORSOrigins: tt.origins}, Deps{})

			req := httptest.NewRequest(http.MethodOptions, "/transcribe/rephrase", nil)
			req.Header.Set("Origin", tt.origin)

			rec, _ := serve(s, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantHeader, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
		})
	}
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &fakeEnhancer{}, Config{Port: 0}, Deps{})
	s.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

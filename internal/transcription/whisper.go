// Package transcription converts recorded audio into text with a hosted Whisper model.
package transcription

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/notepolish/internal/observability"
	"github.com/jonathan/notepolish/internal/types"
)

// Defaults for the Groq-hosted Whisper endpoint.
const (
	DefaultModel    = "whisper-large-v3"
	DefaultBaseURL  = "https://api.groq.com/openai/v1"
	DefaultLanguage = "en"
)

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*types.TranscriptionResult, error)
}

// Config configures the Whisper client.
type Config struct {
	Model   string
	BaseURL string
	// Language is an optional ISO-639-1 hint sent with every request.
	Language string
}

// WhisperTranscriber implements Transcriber over an OpenAI-compatible audio API.
type WhisperTranscriber struct {
	client  *openai.Client
	cfg     Config
	log     logrus.FieldLogger
	metrics *observability.Metrics
}

// NewWhisperTranscriber creates a transcriber. A missing API key is a
// configuration error reported before any network call.
func NewWhisperTranscriber(cfg Config, apiKey string, log logrus.FieldLogger, metrics *observability.Metrics) (*WhisperTranscriber, error) {
	if apiKey == "" {
		return nil, &Error{Message: "speech-to-text API key is not configured"}
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if log == nil {
		log = observability.NopLogger()
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = cfg.BaseURL

	return &WhisperTranscriber{
		client:  openai.NewClientWithConfig(clientConfig),
		cfg:     cfg,
		log:     log,
		metrics: metrics,
	}, nil
}

// Transcribe sends the file at audioPath to the speech-to-text API.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (*types.TranscriptionResult, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, &Error{Message: "cannot read audio file", Cause: err}
	}

	log := w.log.WithFields(logrus.Fields{
		"file":  filepath.Base(audioPath),
		"bytes": info.Size(),
		"model": w.cfg.Model,
	})
	log.Debug("transcribing audio")

	start := time.Now()
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.cfg.Model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: w.cfg.Language,
	})
	if err != nil {
		w.metrics.RecordTranscription(ctx, "error", time.Since(start))
		log.WithError(err).Error("transcription failed")
		return nil, &Error{Message: "speech-to-text request failed", Cause: err}
	}
	w.metrics.RecordTranscription(ctx, "ok", time.Since(start))

	result := &types.TranscriptionResult{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}
	if result.Language == "" {
		result.Language = DefaultLanguage
	}

	log.WithField("chars", len(result.Text)).Info("transcription complete")
	return result, nil
}

// TranscribeBytes writes data to a uniquely named file in dir, transcribes
// it, and removes the file whether or not transcription succeeded.
func TranscribeBytes(ctx context.Context, t Transcriber, dir string, filename string, data []byte) (*types.TranscriptionResult, error) {
	if len(data) == 0 {
		return nil, &Error{Message: "audio payload is empty"}
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Message: "cannot create upload directory", Cause: err}
	}

	path := filepath.Join(dir, fmt.Sprintf("audio-%s%s", uuid.NewString(), Extension(filename, "")))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, &Error{Message: "cannot write audio file", Cause: err}
	}
	defer func() { _ = os.Remove(path) }()

	return t.Transcribe(ctx, path)
}

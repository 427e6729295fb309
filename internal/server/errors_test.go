package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/notepolish/internal/config"
	"github.com/jonathan/notepolish/internal/rewriting"
	"github.com/jonathan/notepolish/internal/transcription"
	"github.com/jonathan/notepolish/internal/usage"
)

func TestHTTPStatusAndCode(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        &ErrValidation{Field: "text", Message: "Text is required"},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidRequest,
			wantMsg:    "Text is required",
		},
		{
			name:       "empty text",
			err:        rewriting.ErrEmptyText,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidRequest,
			wantMsg:    "Text is required",
		},
		{
			name:       "no speech",
			err:        rewriting.ErrNoSpeech,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidRequest,
			wantMsg:    "No speech detected in audio",
		},
		{
			name:       "too large",
			err:        fmt.Errorf("upload: %w", ErrPayloadTooLarge),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   CodePayloadTooLarge,
			wantMsg:    "Audio file too large",
		},
		{
			name:       "limit reached",
			err:        &usage.LimitReachedError{Limit: 5, Used: 5},
			wantStatus: http.StatusForbidden,
			wantCode:   CodeLimitReached,
			wantMsg:    "Monthly recording limit reached",
		},
		{
			name:       "config",
			err:        &config.Error{Message: "missing key"},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   CodeConfigurationError,
			wantMsg:    "Service is not configured",
		},
		{
			name:       "no transcriber",
			err:        rewriting.ErrTranscriptionUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   CodeConfigurationError,
			wantMsg:    "Transcription is not configured",
		},
		{
			name:       "generation",
			err:        &rewriting.GenerationError{Provider: "groq", Message: "boom"},
			wantStatus: http.StatusBadGateway,
			wantCode:   CodeUpstreamFailure,
			wantMsg:    "Upstream model request failed",
		},
		{
			name:       "wrapped transcription",
			err:        fmt.Errorf("process: %w", &transcription.Error{Message: "timeout"}),
			wantStatus: http.StatusBadGateway,
			wantCode:   CodeUpstreamFailure,
			wantMsg:    "Upstream model request failed",
		},
		{
			name:       "unknown",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeInternal,
			wantMsg:    "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, HTTPStatus(tt.err))
			assert.Equal(t, tt.wantCode, ErrorCode(tt.err))
			assert.Equal(t, tt.wantMsg, publicMessage(tt.err))
		})
	}
}

func TestErrValidation_Error(t *testing.T) {
	err := &ErrValidation{Field: "tone", Message: "bad tone"}
	assert.Equal(t, "validation error: tone - bad tone", err.Error())
}

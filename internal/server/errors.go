// Package server provides the HTTP REST API for voice-note enhancement.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/notepolish/internal/config"
	"github.com/jonathan/notepolish/internal/rewriting"
	"github.com/jonathan/notepolish/internal/transcription"
	"github.com/jonathan/notepolish/internal/usage"
)

// Machine-readable error codes returned in the "code" field.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeLimitReached       = "LIMIT_REACHED"
	CodeConfigurationError = "CONFIGURATION_ERROR"
	CodeUpstreamFailure    = "UPSTREAM_FAILURE"
	CodeRateLimited        = "RATE_LIMITED"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeInternal           = "INTERNAL"
)

// ErrPayloadTooLarge is returned when an audio upload exceeds the size limit.
var ErrPayloadTooLarge = errors.New("payload too large")

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr    *ErrValidation
		limitErr         *usage.LimitReachedError
		configErr        *config.Error
		generationErr    *rewriting.GenerationError
		transcriptionErr *transcription.Error
	)

	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &validationErr),
		errors.Is(err, rewriting.ErrEmptyText),
		errors.Is(err, rewriting.ErrNoSpeech):
		return http.StatusBadRequest
	case errors.As(err, &limitErr):
		return http.StatusForbidden
	case errors.As(err, &configErr),
		errors.Is(err, rewriting.ErrTranscriptionUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &generationErr),
		errors.As(err, &transcriptionErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the machine-readable code for an error
func ErrorCode(err error) string {
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return CodeInvalidRequest
	case http.StatusRequestEntityTooLarge:
		return CodePayloadTooLarge
	case http.StatusForbidden:
		return CodeLimitReached
	case http.StatusServiceUnavailable:
		return CodeConfigurationError
	case http.StatusBadGateway:
		return CodeUpstreamFailure
	default:
		return CodeInternal
	}
}

// ErrorDetail returns the collaborator's own message for configuration and
// upstream failures, or "" for every other error. It is sent alongside the
// generic message in the "detail" field.
func ErrorDetail(err error) string {
	var (
		configErr        *config.Error
		generationErr    *rewriting.GenerationError
		transcriptionErr *transcription.Error
	)
	switch {
	case errors.As(err, &configErr):
		return configErr.Error()
	case errors.As(err, &generationErr):
		return generationErr.Error()
	case errors.As(err, &transcriptionErr):
		return transcriptionErr.Error()
	default:
		return ""
	}
}

// publicMessage is the error text shown to clients. Internal failures are
// never echoed; see ErrorDetail for upstream and configuration errors.
func publicMessage(err error) string {
	var validationErr *ErrValidation
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.Is(err, rewriting.ErrEmptyText):
		return "Text is required"
	case errors.Is(err, rewriting.ErrNoSpeech):
		return "No speech detected in audio"
	case errors.Is(err, rewriting.ErrTranscriptionUnavailable):
		return "Transcription is not configured"
	}

	switch HTTPStatus(err) {
	case http.StatusRequestEntityTooLarge:
		return "Audio file too large"
	case http.StatusForbidden:
		return "Monthly recording limit reached"
	case http.StatusServiceUnavailable:
		return "Service is not configured"
	case http.StatusBadGateway:
		return "Upstream model request failed"
	default:
		return "Internal server error"
	}
}

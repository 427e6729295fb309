package rewriting

import (
	"errors"
	"fmt"
)

// GenerationError is returned when the generative model call itself fails.
// It is never retried by the enhancer.
type GenerationError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation failed (%s): %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("generation failed (%s): %s", e.Provider, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// ErrEmptyText is returned when there is nothing to enhance.
var ErrEmptyText = errors.New("text is empty")

// ErrNoSpeech is returned when a transcription produced no text.
var ErrNoSpeech = errors.New("no speech detected in audio")

// ErrTranscriptionUnavailable is returned by audio operations when the
// enhancer was built without a transcriber.
var ErrTranscriptionUnavailable = errors.New("speech-to-text is not configured")

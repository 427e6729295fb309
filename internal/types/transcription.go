package types

// TranscriptionResult is the output of a speech-to-text call
type TranscriptionResult struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"` // seconds
}

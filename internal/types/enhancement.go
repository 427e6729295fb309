package types

// FactSnippet is a short, attributed fact about a candidate term. Text is
// the source prose only; Term is the attribution.
type FactSnippet struct {
	Term   string `json:"term"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"` // wikipedia, wikipedia_search, duckduckgo
}

// RephrasingResult is the output of one enhancement call.
// It is built once by the enhancer and not modified afterwards.
type RephrasingResult struct {
	OriginalText   string        `json:"originalText"`
	RephrasedText  string        `json:"rephrasedText"`
	Tone           ToneType      `json:"tone"`
	DetectedIntent ContentIntent `json:"detectedIntent"`
	Suggestions    []Suggestion  `json:"suggestions"`
}

// ProcessResult pairs a transcription with the rephrasing built from it
type ProcessResult struct {
	Transcription *TranscriptionResult `json:"transcription"`
	Rephrasing    *RephrasingResult    `json:"rephrasing"`
}

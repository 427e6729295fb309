package types

// SuggestionType categorizes an improvement suggestion
type SuggestionType string

// Suggestion type constants
const (
	SuggestionImprovement SuggestionType = "improvement"
	SuggestionAddition    SuggestionType = "addition"
	SuggestionStructure   SuggestionType = "structure"
	SuggestionTip         SuggestionType = "tip"
)

// Priority orders suggestions; high sorts first
type Priority string

// Priority constants
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the sort position of a priority (lower sorts first).
// Unknown priorities sort after low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Suggestion is an advisory improvement for the user's text.
// Suggestions are generated per request and only live inside a RephrasingResult.
type Suggestion struct {
	Type        SuggestionType `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    Priority       `json:"priority"`
}

package prompts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/notepolish/internal/types"
)

// Complexity says how much expansion an input warrants.
type Complexity string

const (
	// ComplexitySimple is a short, generic message such as a greeting.
	ComplexitySimple Complexity = "simple"
	// ComplexitySubstantial is anything worth a full rewrite.
	ComplexitySubstantial Complexity = "substantial"
)

// Length budget parameters, in generation tokens.
const (
	SimpleWordThreshold = 10
	SimpleBaseTokens    = 20
	SimpleTokensPerWord = 5
	TokensPerWord       = 3
	MinTokens           = 300
	MaxTokens           = 2000
)

// Composition is everything the generator needs besides the user text.
type Composition struct {
	SystemPrompt string
	MaxTokens    int
	Complexity   Complexity
}

// ClassifyInputComplexity returns ComplexitySimple for short inputs with no
// recognizable intent.
func ClassifyInputComplexity(text string, intent types.ContentIntent) Complexity {
	if wordCount(text) < SimpleWordThreshold && intent == types.IntentGeneral {
		return ComplexitySimple
	}
	return ComplexitySubstantial
}

// LengthBudget returns the maximum number of tokens to generate for text.
// Simple inputs get a budget proportional to their length; substantial ones
// scale with length between MinTokens and MaxTokens.
func LengthBudget(text string, complexity Complexity) int {
	words := wordCount(text)
	if complexity == ComplexitySimple {
		return SimpleBaseTokens + SimpleTokensPerWord*words
	}

	budget := TokensPerWord * words
	if budget < MinTokens {
		return MinTokens
	}
	if budget > MaxTokens {
		return MaxTokens
	}
	return budget
}

// Compose builds the system prompt for tone and intent, appending contextBlock
// when it is non-empty, and computes the length budget for text. An unknown
// tone uses the default tone.
func Compose(tone types.ToneType, intent types.ContentIntent, contextBlock string, text string) (*Composition, error) {
	if !tone.IsValid() {
		tone = types.DefaultTone
	}
	if !intent.IsValid() {
		intent = types.IntentGeneral
	}

	base, err := Get(TonesFile, string(tone))
	if err != nil {
		return nil, fmt.Errorf("tone template: %w", err)
	}
	guidance, err := Get(IntentsFile, string(intent))
	if err != nil {
		return nil, fmt.Errorf("intent guidance: %w", err)
	}

	complexity := ClassifyInputComplexity(text, intent)

	sections := []string{base}
	if guidance != "" {
		sections = append(sections, guidance)
	}
	if complexity == ComplexitySimple {
		note, err := Get(ComposerFile, "simple_input")
		if err != nil {
			return nil, fmt.Errorf("simple input note: %w", err)
		}
		sections = append(sections, Format(note, map[string]string{
			"Words": strconv.Itoa(wordCount(text)),
		}))
	}
	if block := strings.TrimSpace(contextBlock); block != "" {
		sections = append(sections, block)
	}

	return &Composition{
		SystemPrompt: strings.Join(sections, "\n\n"),
		MaxTokens:    LengthBudget(text, complexity),
		Complexity:   complexity,
	}, nil
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

package research

import (
	"fmt"
	"regexp"

	"github.com/jonathan/notepolish/internal/types"
)

// DefaultMaxFactSentences caps how many sentences survive the filter.
const DefaultMaxFactSentences = 3

// defaultSpecificityExprs match the concrete details that make a fact worth
// quoting: named products, competitions, course codes and numbers with units.
var defaultSpecificityExprs = []string{
	// Acronyms: MIT, NASA, IEEE, GPT4
	`\b[A-Z]{2,}[0-9]*\b`,
	// CamelCase product names: GitHub, PyTorch, iPhone, eBay
	`\b[A-Z][a-z]+[A-Z][A-Za-z]*\b`,
	`\b[a-z][A-Z][a-z]+\b`,
	// Product with version: Windows 11, Python 3.12, GPT 4
	`\b[A-Z][A-Za-z]+ v?\d{1,2}(?:\.\d+)*\b`,
	// Competition names: Putnam Competition, Regeneron Science Talent Search, Intel ISEF
	`\b(?:[A-Z][A-Za-z]+\s+)+(?:Olympiad|Hackathon|Championship|Challenge|Prize|Award|Cup|Bowl|Fair|Competition|Talent Search)s?\b`,
	// Course codes: CS 101, MATH 55, 6.036
	`\b[A-Z]{2,4}\s?\d{2,3}[A-Z]?\b`,
	`\b\d{1,2}\.\d{3}\b`,
	// Percentages
	`\d+(?:\.\d+)?\s?%`,
	`(?i)\b\d+(?:\.\d+)?\s+percent\b`,
	// Currency amounts
	`[$€£¥]\s?\d`,
	`(?i)\b\d[\d,.]*\s+(?:million|billion|trillion)\b`,
	`(?i)\b(?:USD|EUR|GBP)\s?\d`,
	// Rank numbers
	`(?i)\b(?:ranked|ranks|ranking)\s+(?:#|no\.?\s*|number\s+)?\d+`,
	`#\d+\b`,
	`(?i)\btop\s+\d+\b`,
	`(?i)\b\d+(?:st|nd|rd|th)\s+(?:place|largest|oldest|best|most)\b`,
}

// DefaultSpecificityPatterns returns freshly compiled default patterns.
func DefaultSpecificityPatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(defaultSpecificityExprs))
	for i, expr := range defaultSpecificityExprs {
		out[i] = regexp.MustCompile(expr)
	}
	return out
}

// SpecificityFilter keeps only sentences that carry a concrete, checkable detail.
type SpecificityFilter struct {
	Patterns     []*regexp.Regexp
	MaxSentences int
}

// NewSpecificityFilter builds a filter from the default patterns plus any
// extra expressions. A non-positive maxSentences uses DefaultMaxFactSentences.
func NewSpecificityFilter(extra []string, maxSentences int) (*SpecificityFilter, error) {
	patterns := DefaultSpecificityPatterns()
	for _, expr := range extra {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid specificity pattern %q: %w", expr, err)
		}
		patterns = append(patterns, re)
	}
	if maxSentences <= 0 {
		maxSentences = DefaultMaxFactSentences
	}
	return &SpecificityFilter{Patterns: patterns, MaxSentences: maxSentences}, nil
}

// IsSpecific reports whether sentence matches any pattern.
func (f *SpecificityFilter) IsSpecific(sentence string) bool {
	for _, p := range f.Patterns {
		if p.MatchString(sentence) {
			return true
		}
	}
	return false
}

// Filter splits text into sentences and returns the specific ones in their
// original order, at most MaxSentences of them.
func (f *SpecificityFilter) Filter(text string) []string {
	limit := f.MaxSentences
	if limit <= 0 {
		limit = DefaultMaxFactSentences
	}

	var kept []string
	for _, s := range splitSentences(text) {
		if !f.IsSpecific(s) {
			continue
		}
		kept = append(kept, s)
		if len(kept) == limit {
			break
		}
	}
	return kept
}

// FilterSnippets applies the filter across snippets in order and labels each
// surviving sentence with its term ("MIT: The acceptance rate is 4%."). The
// label is added after matching so that a specific-looking term never
// carries a generic sentence through.
func (f *SpecificityFilter) FilterSnippets(snippets []types.FactSnippet) []string {
	limit := f.MaxSentences
	if limit <= 0 {
		limit = DefaultMaxFactSentences
	}

	var kept []string
	for _, snip := range snippets {
		for _, s := range f.Filter(snip.Text) {
			kept = append(kept, snip.Term+": "+s)
			if len(kept) == limit {
				return kept
			}
		}
	}
	return kept
}

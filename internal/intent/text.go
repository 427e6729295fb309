// Package intent classifies what kind of document a note is turning into.
package intent

import (
	"strings"
	"unicode"
)

// Text is a lower-cased view of a note prepared for keyword checks.
type Text struct {
	lower string
	words map[string]bool
	count int
}

// Analyze prepares raw text for keyword checks.
func Analyze(raw string) Text {
	lower := strings.ToLower(raw)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	words := make(map[string]bool, len(fields))
	for _, f := range fields {
		words[strings.Trim(f, "'")] = true
	}

	return Text{lower: lower, words: words, count: len(strings.Fields(raw))}
}

// Lower returns the lower-cased text.
func (t Text) Lower() string { return t.lower }

// WordCount returns the number of whitespace-separated words.
func (t Text) WordCount() int { return t.count }

// minInflectLen is the shortest keyword whose plural forms also match, so
// that "hi" never matches "his".
const minInflectLen = 3

// Has reports whether term occurs in the text. Single words match the whole
// word or its plural and possessive forms ("scholarship" matches
// "scholarships", "intern" does not match "international"); phrases and
// terms with punctuation match as substrings.
func (t Text) Has(term string) bool {
	if !isSingleWord(term) {
		return strings.Contains(t.lower, term)
	}
	if t.words[term] {
		return true
	}
	if len(term) < minInflectLen {
		return false
	}
	for _, form := range inflections(term) {
		if t.words[form] {
			return true
		}
	}
	return false
}

func inflections(term string) []string {
	forms := []string{term + "s", term + "es", term + "'s"}
	if strings.HasSuffix(term, "y") {
		forms = append(forms, strings.TrimSuffix(term, "y")+"ies")
	}
	return forms
}

// HasAny reports whether any of terms occurs.
func (t Text) HasAny(terms []string) bool {
	for _, term := range terms {
		if t.Has(term) {
			return true
		}
	}
	return false
}

// CountDistinct returns how many distinct terms occur.
func (t Text) CountDistinct(terms []string) int {
	n := 0
	seen := make(map[string]bool, len(terms))
	for _, term := range terms {
		if seen[term] {
			continue
		}
		seen[term] = true
		if t.Has(term) {
			n++
		}
	}
	return n
}

// HasDigit reports whether the text contains any digit.
func (t Text) HasDigit() bool {
	return strings.IndexFunc(t.lower, unicode.IsDigit) >= 0
}

func isSingleWord(term string) bool {
	for _, r := range term {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' {
			return false
		}
	}
	return term != ""
}

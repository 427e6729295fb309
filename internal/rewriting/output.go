package rewriting

import (
	"strings"

	"github.com/jonathan/notepolish/internal/llm"
)

// refusalOpeners mark a response that declined the task instead of rewriting.
var refusalOpeners = []string{
	"i'm sorry",
	"i am sorry",
	"i apologize",
	"i can't help",
	"i cannot help",
	"i can't assist",
	"i cannot assist",
	"as an ai",
}

// metaPhrases are notes about the rewrite that should never reach the user.
var metaPhrases = []string{
	"note: i",
	"(note:",
	"i have rewritten",
	"i've rewritten",
	"let me know if you",
	"feel free to adjust",
}

// findPhrases returns the phrases from candidates that occur in text,
// case-insensitively and without duplicates.
func findPhrases(text string, candidates []string) []string {
	if len(candidates) == 0 {
		return nil
	}

	normalizedText := strings.ToLower(text)

	var found []string
	seen := make(map[string]bool)

	for _, phrase := range candidates {
		normalized := strings.ToLower(strings.TrimSpace(phrase))
		if normalized == "" || seen[normalized] {
			continue
		}
		if strings.Contains(normalizedText, normalized) {
			found = append(found, phrase)
			seen[normalized] = true
		}
	}

	if len(found) == 0 {
		return nil
	}
	return found
}

// usableOutput cleans raw model output and reports whether anything worth
// returning is left. Refusals and empty responses are not usable.
func usableOutput(raw string) (string, bool) {
	cleaned := llm.CleanOutput(raw)
	if cleaned == "" {
		return "", false
	}

	lower := strings.ToLower(cleaned)
	for _, opener := range refusalOpeners {
		if strings.HasPrefix(lower, opener) {
			return "", false
		}
	}

	return stripMetaLines(cleaned), true
}

// stripMetaLines drops trailing lines that only talk about the rewrite.
// If every line is meta commentary the text is returned unchanged.
func stripMetaLines(text string) string {
	lines := strings.Split(text, "\n")
	end := len(lines)
	for end > 0 {
		line := strings.TrimSpace(lines[end-1])
		if line == "" || len(findPhrases(line, metaPhrases)) > 0 {
			end--
			continue
		}
		break
	}
	if end == 0 {
		return text
	}
	return strings.TrimSpace(strings.Join(lines[:end], "\n"))
}

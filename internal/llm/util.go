package llm

import (
	"regexp"
	"strings"
)

// preamblePattern matches a leading line where the model announces its output
// ("Here is the rewritten text:") instead of just giving it.
var preamblePattern = regexp.MustCompile(`(?i)^(?:sure[,!.]?\s*)?here(?:'s| is) (?:the |your |a )?(?:rewritten|rephrased|polished|cleaned[- ]up|condensed|revised|improved|enhanced)[^\n]*:\s*\n+`)

// CleanOutput removes wrappers models add around rewritten text: markdown
// code fences and a one-line "here is the rewritten text" preamble.
func CleanOutput(text string) string {
	text = strings.TrimSpace(text)
	text = stripCodeFence(text)
	text = preamblePattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	// Skip a language identifier on the first line
	if idx := strings.Index(inner, "\n"); idx >= 0 {
		firstLine := inner[:idx]
		if len(firstLine) < 20 && !strings.Contains(firstLine, " ") {
			inner = inner[idx+1:]
		}
	}
	return strings.TrimSpace(inner)
}

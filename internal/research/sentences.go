package research

import (
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

var (
	tokenizerOnce sync.Once
	tokenizer     *sentences.DefaultSentenceTokenizer
)

// splitSentences breaks prose into trimmed, non-empty sentences using the
// punkt English model. It falls back to splitting on terminal punctuation
// if the model cannot be loaded.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	tokenizerOnce.Do(func() {
		t, err := english.NewSentenceTokenizer(nil)
		if err == nil {
			tokenizer = t
		}
	})

	if tokenizer == nil {
		return splitOnPunctuation(text)
	}

	var out []string
	for _, s := range tokenizer.Tokenize(text) {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func splitOnPunctuation(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// firstSentences returns at most n leading sentences of text joined by a space.
func firstSentences(text string, n int) string {
	all := splitSentences(text)
	if len(all) > n {
		all = all[:n]
	}
	return strings.Join(all, " ")
}

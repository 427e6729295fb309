// Package research finds real-world facts worth weaving into an enhanced note:
// candidate term extraction, knowledge source lookups, the specificity filter,
// and the context gatherer that ties them together.
package research

import (
	"regexp"
	"sort"
	"strings"
)

// MaxCandidateTerms bounds the lookup fan-out for a single request.
const MaxCandidateTerms = 8

// minTermLength is the shortest proper-noun run kept as a candidate.
const minTermLength = 3

// gazetteerEntry is a well-known organization or school.
type gazetteerEntry struct {
	Name string // canonical casing
	// CaseSensitive entries are ordinary English words in lower case
	// ("apple", "zoom") and only match when capitalized.
	CaseSensitive bool
	Aliases       []string
}

// gazetteer lists companies, universities, consultancies and research labs.
var gazetteer = []gazetteerEntry{
	// Companies
	{Name: "Google"}, {Name: "Microsoft"}, {Name: "Netflix"}, {Name: "Tesla"},
	{Name: "OpenAI"}, {Name: "Anthropic"}, {Name: "IBM"}, {Name: "Salesforce"},
	{Name: "Adobe"}, {Name: "Nvidia"}, {Name: "AMD"}, {Name: "Spotify"},
	{Name: "LinkedIn"}, {Name: "Airbnb"}, {Name: "Shopify"}, {Name: "GitHub"},
	{Name: "GitLab"}, {Name: "SpaceX"}, {Name: "Facebook"}, {Name: "Twitter"},
	{Name: "Goldman Sachs"}, {Name: "JPMorgan", Aliases: []string{"JP Morgan", "J.P. Morgan"}},
	{Name: "Morgan Stanley"}, {Name: "Bloomberg"}, {Name: "Palantir"},
	{Name: "Apple", CaseSensitive: true}, {Name: "Amazon", CaseSensitive: true},
	{Name: "Meta", CaseSensitive: true}, {Name: "Oracle", CaseSensitive: true},
	{Name: "Intel", CaseSensitive: true}, {Name: "Uber", CaseSensitive: true},
	{Name: "Stripe", CaseSensitive: true}, {Name: "Slack", CaseSensitive: true},
	{Name: "Zoom", CaseSensitive: true}, {Name: "Discord", CaseSensitive: true},
	// Consultancies
	{Name: "McKinsey", Aliases: []string{"McKinsey & Company"}},
	{Name: "Boston Consulting Group", Aliases: []string{"BCG"}},
	{Name: "Deloitte"}, {Name: "Accenture"}, {Name: "PwC"}, {Name: "KPMG"},
	{Name: "Ernst & Young", Aliases: []string{"EY"}},
	{Name: "Bain", CaseSensitive: true},
	// Universities
	{Name: "MIT", Aliases: []string{"Massachusetts Institute of Technology"}},
	{Name: "Stanford University", Aliases: []string{"Stanford"}},
	{Name: "Harvard University", Aliases: []string{"Harvard"}},
	{Name: "Yale University", Aliases: []string{"Yale"}},
	{Name: "Princeton University", Aliases: []string{"Princeton"}},
	{Name: "Caltech", Aliases: []string{"California Institute of Technology"}},
	{Name: "Carnegie Mellon University", Aliases: []string{"Carnegie Mellon", "CMU"}},
	{Name: "UC Berkeley", Aliases: []string{"Berkeley"}},
	{Name: "UCLA"},
	{Name: "Columbia University"}, {Name: "Cornell University", Aliases: []string{"Cornell"}},
	{Name: "University of Michigan"}, {Name: "Georgia Tech"},
	{Name: "University of Oxford", Aliases: []string{"Oxford University"}},
	{Name: "University of Cambridge", Aliases: []string{"Cambridge University"}},
	{Name: "University of Waterloo", Aliases: []string{"Waterloo"}},
	{Name: "Duke University"}, {Name: "Brown University"},
	{Name: "Dartmouth College", Aliases: []string{"Dartmouth"}},
	{Name: "University of Pennsylvania", Aliases: []string{"UPenn"}},
	// Research labs
	{Name: "DeepMind", Aliases: []string{"Google DeepMind"}},
	{Name: "Microsoft Research"}, {Name: "Bell Labs"}, {Name: "Xerox PARC"},
	{Name: "NASA"}, {Name: "CERN"},
	{Name: "Jet Propulsion Laboratory", Aliases: []string{"JPL"}},
	{Name: "Los Alamos National Laboratory", Aliases: []string{"Los Alamos"}},
}

// programKeywords are subjects that sharpen an organization lookup
// ("MIT mathematics" rather than "MIT").
var programKeywords = []string{
	"computer science", "data science", "mathematics", "math", "engineering",
	"physics", "chemistry", "biology", "economics", "business", "finance",
	"medicine", "nursing", "law", "psychology", "architecture",
}

// stopWords are capitalized words that never start a useful proper-noun term.
var stopWords = toSet([]string{
	"the", "and", "for", "but", "not", "you", "all", "can", "had", "her", "was",
	"one", "our", "out", "this", "that", "these", "those", "there", "then",
	"when", "what", "where", "which", "while", "with", "also", "just", "hey",
	"hello", "hi", "thanks", "thank", "yes", "yeah", "okay", "sure", "please",
	"dear", "sincerely", "regards", "best", "today", "tomorrow", "yesterday",
	"my", "we", "they", "he", "she", "it", "so", "if", "in", "on", "at", "to",
	"um", "uh", "however", "overall", "additionally", "finally", "first",
	"second", "next", "last", "some", "many", "most", "every", "after",
	"before", "during", "because", "since", "although", "here", "how", "why",
	"who", "let", "well", "now", "really", "actually", "basically", "anyway",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"january", "february", "march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december", "i'm", "i've", "i'd",
})

var (
	properNounPattern = regexp.MustCompile(`\b[A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*\b`)
	gazetteerPatterns = compileGazetteer(gazetteer)
	programPatterns   = compileWords(programKeywords)
)

type gazetteerPattern struct {
	name     string
	forms    []string
	patterns []*regexp.Regexp
}

func compileGazetteer(entries []gazetteerEntry) []gazetteerPattern {
	compiled := make([]gazetteerPattern, 0, len(entries))
	for _, e := range entries {
		gp := gazetteerPattern{name: e.Name, forms: append([]string{e.Name}, e.Aliases...)}
		for _, form := range gp.forms {
			expr := `\b` + regexp.QuoteMeta(form) + `\b`
			if !e.CaseSensitive {
				expr = `(?i)` + expr
			}
			gp.patterns = append(gp.patterns, regexp.MustCompile(expr))
		}
		compiled = append(compiled, gp)
	}
	return compiled
}

func compileWords(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// ExtractCandidateTerms returns up to MaxCandidateTerms terms worth a factual
// lookup, in discovery order: gazetteer hits, then proper-noun runs, then
// "<organization> <program>" compounds.
func ExtractCandidateTerms(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	collector := newTermCollector()

	hits := matchGazetteer(text)
	orgs := make([]string, len(hits))
	for i, hit := range hits {
		orgs[i] = hit.name
		collector.add(hit.name)
		// "Harvard" in the text should not come back as a second term
		// next to "Harvard University".
		collector.markSeen(hit.forms...)
	}

	for _, run := range properNounPattern.FindAllString(text, -1) {
		if term := trimStopWords(run); term != "" {
			collector.add(term)
		}
	}

	if program := firstProgram(text); program != "" {
		for _, org := range orgs {
			collector.add(org + " " + program)
		}
	}

	return collector.terms(MaxCandidateTerms)
}

// matchGazetteer returns the gazetteer entries found in text, ordered by
// first occurrence.
func matchGazetteer(text string) []gazetteerPattern {
	type hit struct {
		gp  gazetteerPattern
		pos int
	}
	var hits []hit
	for _, gp := range gazetteerPatterns {
		best := -1
		for _, p := range gp.patterns {
			if loc := p.FindStringIndex(text); loc != nil && (best == -1 || loc[0] < best) {
				best = loc[0]
			}
		}
		if best >= 0 {
			hits = append(hits, hit{gp: gp, pos: best})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	out := make([]gazetteerPattern, len(hits))
	for i, h := range hits {
		out[i] = h.gp
	}
	return out
}

// trimStopWords drops leading stop words from a capitalized run and returns
// what is left, or "" when nothing useful remains.
func trimStopWords(run string) string {
	words := strings.Fields(run)
	for len(words) > 0 && stopWords[strings.ToLower(words[0])] {
		words = words[1:]
	}
	if len(words) == 0 {
		return ""
	}
	term := strings.Join(words, " ")
	if len(term) < minTermLength {
		return ""
	}
	return term
}

// firstProgram returns the program keyword that appears earliest in text.
func firstProgram(text string) string {
	best, bestPos := "", -1
	for i, p := range programPatterns {
		if loc := p.FindStringIndex(text); loc != nil && (bestPos == -1 || loc[0] < bestPos) {
			best, bestPos = programKeywords[i], loc[0]
		}
	}
	return best
}

// termCollector keeps first-seen order and drops case-insensitive duplicates.
type termCollector struct {
	seen  map[string]bool
	order []string
}

func newTermCollector() *termCollector {
	return &termCollector{seen: make(map[string]bool)}
}

func (c *termCollector) add(term string) {
	key := strings.ToLower(term)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.order = append(c.order, term)
}

func (c *termCollector) markSeen(terms ...string) {
	for _, t := range terms {
		c.seen[strings.ToLower(t)] = true
	}
}

func (c *termCollector) terms(limit int) []string {
	if len(c.order) > limit {
		return c.order[:limit]
	}
	return c.order
}

// MentionsOrganization reports whether text names any well-known
// organization or school.
func MentionsOrganization(text string) bool {
	for _, gp := range gazetteerPatterns {
		for _, p := range gp.patterns {
			if p.MatchString(text) {
				return true
			}
		}
	}
	return false
}

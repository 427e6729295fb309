package research

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/notepolish/internal/observability"
	"github.com/jonathan/notepolish/internal/types"
	"github.com/jonathan/notepolish/internal/validation"
)

// factsInstruction tells the generator how to treat the quoted facts.
const factsInstruction = `VERIFIED FACTS:
The facts below come from public reference sources. If one of them is relevant to the user's text, you may use its exact names and numbers to make the writing more specific. Never invent details beyond these facts. If none are relevant, ignore them. Do not cite sources or mention that facts were provided.`

// Gatherer turns a note into a block of verified facts for the prompt.
type Gatherer struct {
	source KnowledgeSource
	filter *SpecificityFilter
	log    logrus.FieldLogger
}

// NewGatherer creates a Gatherer. A nil filter uses the default patterns.
func NewGatherer(source KnowledgeSource, filter *SpecificityFilter, log logrus.FieldLogger) *Gatherer {
	if filter == nil {
		filter = &SpecificityFilter{Patterns: DefaultSpecificityPatterns(), MaxSentences: DefaultMaxFactSentences}
	}
	if log == nil {
		log = observability.NopLogger()
	}
	return &Gatherer{source: source, filter: filter, log: log}
}

// Gather extracts candidate terms from text, looks them up concurrently and
// returns the rendered facts block, or "" when nothing specific was found.
func (g *Gatherer) Gather(ctx context.Context, text string) string {
	terms := ExtractCandidateTerms(text)
	if len(terms) == 0 {
		return ""
	}

	snippets := g.lookupAll(ctx, terms)
	if len(snippets) == 0 {
		g.log.WithField("terms", terms).Debug("no knowledge snippets found")
		return ""
	}

	facts := g.filter.FilterSnippets(snippets)
	if len(facts) == 0 {
		g.log.WithField("snippets", len(snippets)).Debug("no specific facts survived filtering")
		return ""
	}

	g.log.WithFields(logrus.Fields{
		"terms": len(terms),
		"facts": len(facts),
	}).Debug("gathered context")

	return RenderFactsBlock(facts)
}

// lookupAll queries every term in parallel and returns the non-nil snippets
// in term order.
func (g *Gatherer) lookupAll(ctx context.Context, terms []string) []types.FactSnippet {
	results := make([]*types.FactSnippet, len(terms))

	var eg errgroup.Group
	eg.SetLimit(MaxCandidateTerms)
	for i, term := range terms {
		eg.Go(func() error {
			results[i] = g.source.Lookup(ctx, term)
			return nil
		})
	}
	_ = eg.Wait()

	var out []types.FactSnippet
	for _, r := range results {
		if r != nil && strings.TrimSpace(r.Text) != "" {
			out = append(out, *r)
		}
	}
	return out
}

// RenderFactsBlock formats facts as the prompt section consumed by the composer.
func RenderFactsBlock(facts []string) string {
	if len(facts) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, f := range facts {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(f)
	}

	return factsInstruction + "\n" + validation.QuoteExternalContentWithLabel(sb.String(), "verified facts")
}

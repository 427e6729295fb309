package research

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/notepolish/internal/fetch"
	"github.com/jonathan/notepolish/internal/observability"
	"github.com/jonathan/notepolish/internal/types"
	"github.com/jonathan/notepolish/internal/validation"
)

// Knowledge source names recorded on snippets and metrics.
const (
	SourceWikipedia       = "wikipedia"
	SourceWikipediaSearch = "wikipedia_search"
	SourceDuckDuckGo      = "duckduckgo"
)

// Default public endpoints.
const (
	DefaultWikipediaURL  = "https://en.wikipedia.org"
	DefaultDuckDuckGoURL = "https://api.duckduckgo.com"
)

const (
	wikipediaSentences  = 4
	duckDuckGoSentences = 2
)

// KnowledgeSource returns a short factual snippet for a term, or nil when
// nothing usable was found. Implementations never fail the caller.
type KnowledgeSource interface {
	Lookup(ctx context.Context, term string) *types.FactSnippet
}

// KnowledgeConfig configures the public knowledge endpoints.
type KnowledgeConfig struct {
	WikipediaURL  string
	DuckDuckGoURL string
	Timeout       time.Duration
	UserAgent     string
}

// DefaultKnowledgeConfig points at the public Wikipedia and DuckDuckGo APIs.
func DefaultKnowledgeConfig() KnowledgeConfig {
	return KnowledgeConfig{
		WikipediaURL:  DefaultWikipediaURL,
		DuckDuckGoURL: DefaultDuckDuckGoURL,
		Timeout:       fetch.DefaultTimeout,
		UserAgent:     fetch.DefaultUserAgent,
	}
}

// KnowledgeFetcher looks terms up in an encyclopedia summary endpoint, then
// encyclopedia search, then an instant-answer endpoint.
type KnowledgeFetcher struct {
	cfg     KnowledgeConfig
	opts    *fetch.Options
	log     logrus.FieldLogger
	metrics *observability.Metrics
}

// NewKnowledgeFetcher creates a fetcher. Empty config fields take their defaults.
func NewKnowledgeFetcher(cfg KnowledgeConfig, log logrus.FieldLogger, metrics *observability.Metrics) *KnowledgeFetcher {
	defaults := DefaultKnowledgeConfig()
	if cfg.WikipediaURL == "" {
		cfg.WikipediaURL = defaults.WikipediaURL
	}
	if cfg.DuckDuckGoURL == "" {
		cfg.DuckDuckGoURL = defaults.DuckDuckGoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if log == nil {
		log = observability.NopLogger()
	}

	cfg.WikipediaURL = strings.TrimRight(cfg.WikipediaURL, "/")
	cfg.DuckDuckGoURL = strings.TrimRight(cfg.DuckDuckGoURL, "/")

	return &KnowledgeFetcher{
		cfg: cfg,
		opts: &fetch.Options{
			Timeout:   cfg.Timeout,
			UserAgent: cfg.UserAgent,
		},
		log:     log,
		metrics: metrics,
	}
}

// Lookup returns the first usable snippet for term, or nil. Failures of any
// single source are logged at debug level and the next source is tried.
// Every source call gets its own Timeout, so a slow source does not starve
// the ones after it.
func (f *KnowledgeFetcher) Lookup(ctx context.Context, term string) *types.FactSnippet {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	log := f.log.WithField("term", term)

	extract := f.withTimeout(ctx, func(ctx context.Context) string {
		return f.wikipediaSummary(ctx, log, term, SourceWikipedia)
	})
	if extract != "" {
		return f.snippet(term, extract, wikipediaSentences, SourceWikipedia)
	}

	title := f.withTimeout(ctx, func(ctx context.Context) string {
		return f.wikipediaSearch(ctx, log, term)
	})
	if title != "" {
		extract = f.withTimeout(ctx, func(ctx context.Context) string {
			return f.wikipediaSummary(ctx, log, title, SourceWikipediaSearch)
		})
		if extract != "" {
			return f.snippet(term, extract, wikipediaSentences, SourceWikipediaSearch)
		}
	}

	abstract := f.withTimeout(ctx, func(ctx context.Context) string {
		return f.duckDuckGo(ctx, log, term)
	})
	if abstract != "" {
		return f.snippet(term, abstract, duckDuckGoSentences, SourceDuckDuckGo)
	}

	return nil
}

func (f *KnowledgeFetcher) withTimeout(ctx context.Context, call func(context.Context) string) string {
	if ctx.Err() != nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()
	return call(ctx)
}

// snippet keeps the leading sentences of prose. The term is carried in
// FactSnippet.Term, not in Text, so the specificity filter only sees source prose.
func (f *KnowledgeFetcher) snippet(term, prose string, sentences int, source string) *types.FactSnippet {
	text := firstSentences(prose, sentences)
	text = validation.ScreenExternalText(f.log, text, source)
	if text == "" {
		return nil
	}
	return &types.FactSnippet{
		Term:   term,
		Text:   text,
		Source: source,
	}
}

type wikipediaSummaryResponse struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

func (f *KnowledgeFetcher) wikipediaSummary(ctx context.Context, log logrus.FieldLogger, title string, source string) string {
	endpoint := f.cfg.WikipediaURL + "/api/rest_v1/page/summary/" +
		url.PathEscape(strings.ReplaceAll(title, " ", "_"))

	var resp wikipediaSummaryResponse
	if err := fetch.JSON(ctx, endpoint, f.opts, &resp); err != nil {
		log.WithError(err).WithField("source", source).Debug("summary lookup failed")
		f.metrics.RecordKnowledgeLookup(ctx, source, "error")
		return ""
	}

	if resp.Type == "disambiguation" {
		f.metrics.RecordKnowledgeLookup(ctx, source, "miss")
		return ""
	}

	extract := fetch.StripHTML(resp.Extract)
	if extract == "" {
		f.metrics.RecordKnowledgeLookup(ctx, source, "miss")
		return ""
	}

	f.metrics.RecordKnowledgeLookup(ctx, source, "hit")
	return extract
}

type wikipediaSearchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// wikipediaSearch returns the best-matching article title for term.
func (f *KnowledgeFetcher) wikipediaSearch(ctx context.Context, log logrus.FieldLogger, term string) string {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", term)
	params.Set("srlimit", "1")
	params.Set("format", "json")
	endpoint := f.cfg.WikipediaURL + "/w/api.php?" + params.Encode()

	var resp wikipediaSearchResponse
	if err := fetch.JSON(ctx, endpoint, f.opts, &resp); err != nil {
		log.WithError(err).WithField("source", SourceWikipediaSearch).Debug("search lookup failed")
		return ""
	}
	if len(resp.Query.Search) == 0 {
		return ""
	}
	return fetch.StripHTML(resp.Query.Search[0].Title)
}

type duckDuckGoResponse struct {
	AbstractText string `json:"AbstractText"`
	Abstract     string `json:"Abstract"`
}

func (f *KnowledgeFetcher) duckDuckGo(ctx context.Context, log logrus.FieldLogger, term string) string {
	params := url.Values{}
	params.Set("q", term)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")
	endpoint := f.cfg.DuckDuckGoURL + "/?" + params.Encode()

	var resp duckDuckGoResponse
	if err := fetch.JSON(ctx, endpoint, f.opts, &resp); err != nil {
		log.WithError(err).WithField("source", SourceDuckDuckGo).Debug("instant answer lookup failed")
		f.metrics.RecordKnowledgeLookup(ctx, SourceDuckDuckGo, "error")
		return ""
	}

	abstract := resp.AbstractText
	if abstract == "" {
		abstract = resp.Abstract
	}
	abstract = fetch.StripHTML(abstract)
	if abstract == "" {
		f.metrics.RecordKnowledgeLookup(ctx, SourceDuckDuckGo, "miss")
		return ""
	}

	f.metrics.RecordKnowledgeLookup(ctx, SourceDuckDuckGo, "hit")
	return abstract
}

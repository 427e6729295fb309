package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/notepolish/internal/config"
	"github.com/jonathan/notepolish/internal/llm"
	"github.com/jonathan/notepolish/internal/observability"
	"github.com/jonathan/notepolish/internal/research"
	"github.com/jonathan/notepolish/internal/rewriting"
	"github.com/jonathan/notepolish/internal/transcription"
	"github.com/jonathan/notepolish/internal/usage"
)

// app holds the collaborators shared by the commands.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	metrics  *observability.Metrics
	enhancer *rewriting.Enhancer
	closers  []func()
}

// loadConfig reads and validates configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp wires the enhancement pipeline from cfg. store may be nil, in which
// case no caller is subject to a quota.
func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger, metrics *observability.Metrics, store usage.Store) (*app, error) {
	a := &app{cfg: cfg, log: log, metrics: metrics}

	provider, err := llm.ParseProvider(strings.ToLower(cfg.LLM.Provider))
	if err != nil {
		return nil, &config.Error{Message: "invalid llm provider", Cause: err}
	}
	llmConfig := llm.DefaultConfigFor(provider).WithModel(cfg.LLM.Model)
	llmConfig.Temperature = float32(cfg.LLM.Temperature)
	if cfg.LLM.BaseURL != "" {
		llmConfig.BaseURL = cfg.LLM.BaseURL
	}

	generator, err := llm.NewGenerator(ctx, llmConfig, cfg.APIKey())
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := generator.Close(); err != nil {
			log.WithError(err).Warn("failed to close generator")
		}
	})

	opts := rewriting.Options{
		UploadDir: cfg.Server.UploadDir,
		Logger:    log,
		Metrics:   metrics,
	}

	if cfg.Research.Enabled {
		filter, err := research.NewSpecificityFilter(cfg.Research.SpecificityPatterns, cfg.Research.MaxFactSentences)
		if err != nil {
			a.Close()
			return nil, &config.Error{Message: "invalid research configuration", Cause: err}
		}
		fetcher := research.NewKnowledgeFetcher(research.KnowledgeConfig{
			WikipediaURL:  cfg.Research.WikipediaURL,
			DuckDuckGoURL: cfg.Research.DuckDuckGoURL,
			Timeout:       cfg.Research.Timeout,
			UserAgent:     cfg.Research.UserAgent,
		}, log, metrics)
		opts.Gatherer = research.NewGatherer(fetcher, filter, log)
	}

	if cfg.TranscriptionEnabled() {
		transcriber, err := transcription.NewWhisperTranscriber(transcription.Config{
			Model:    cfg.Transcription.Model,
			BaseURL:  cfg.Transcription.BaseURL,
			Language: cfg.Transcription.Language,
		}, cfg.LLM.GroqAPIKey, log, metrics)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts.Transcriber = transcriber
	} else {
		log.Warn("GROQ_API_KEY is not set; audio endpoints are disabled")
	}

	if store != nil {
		opts.Quota = usage.NewQuota(store, cfg.Quota.FreeTierLimit, log, metrics)
	}

	a.enhancer = rewriting.NewEnhancer(generator, opts)
	return a, nil
}

// Close releases everything newApp opened, in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// readText returns the note from --text, --in, or stdin ("-").
func readText(text, inPath string, stdin io.Reader) (string, error) {
	switch {
	case text != "" && inPath != "":
		return "", errors.New("use either --text or --in, not both")
	case text != "":
		return text, nil
	case inPath == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	case inPath != "":
		data, err := os.ReadFile(inPath)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	default:
		return "", errors.New("no input: pass --text, --in <file>, or --in - for stdin")
	}
}

// cliLogger logs to stderr so command output stays clean on stdout.
func cliLogger(cfg *config.Config, verbose bool) *logrus.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return observability.NewLoggerWithOutput(os.Stderr, level, cfg.Log.Format)
}

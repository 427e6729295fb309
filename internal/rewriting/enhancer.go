// Package rewriting runs the enhancement pipeline: quota, intent, research,
// prompt composition, generation and suggestions.
package rewriting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/notepolish/internal/intent"
	"github.com/jonathan/notepolish/internal/llm"
	"github.com/jonathan/notepolish/internal/observability"
	"github.com/jonathan/notepolish/internal/prompts"
	"github.com/jonathan/notepolish/internal/research"
	"github.com/jonathan/notepolish/internal/suggestions"
	"github.com/jonathan/notepolish/internal/transcription"
	"github.com/jonathan/notepolish/internal/types"
	"github.com/jonathan/notepolish/internal/usage"
)

// ContextWordThreshold is the word count at which a note is researched even
// when no candidate terms were found.
const ContextWordThreshold = 40

// ContextGatherer produces a facts block for the prompt. It never fails;
// an empty string means no facts.
type ContextGatherer interface {
	Gather(ctx context.Context, text string) string
}

// Options holds the optional collaborators of an Enhancer.
type Options struct {
	Gatherer    ContextGatherer
	Quota       *usage.Quota
	Transcriber transcription.Transcriber
	// UploadDir is where audio payloads are staged for transcription.
	UploadDir string
	Logger    logrus.FieldLogger
	Metrics   *observability.Metrics
}

// Enhancer is the entry point for text and audio enhancement.
type Enhancer struct {
	generator   llm.Generator
	gatherer    ContextGatherer
	quota       *usage.Quota
	transcriber transcription.Transcriber
	uploadDir   string
	log         logrus.FieldLogger
	metrics     *observability.Metrics
}

// NewEnhancer creates an Enhancer around generator.
func NewEnhancer(generator llm.Generator, opts Options) *Enhancer {
	log := opts.Logger
	if log == nil {
		log = observability.NopLogger()
	}
	return &Enhancer{
		generator:   generator,
		gatherer:    opts.Gatherer,
		quota:       opts.Quota,
		transcriber: opts.Transcriber,
		uploadDir:   opts.UploadDir,
		log:         log,
		metrics:     opts.Metrics,
	}
}

// Request is one text enhancement call.
type Request struct {
	Text string
	Tone types.ToneType
	// UserID identifies the caller; nil means anonymous and unmetered.
	UserID *uuid.UUID
}

// AudioRequest is one transcribe-then-enhance call.
type AudioRequest struct {
	Data     []byte
	Filename string
	Tone     types.ToneType
	UserID   *uuid.UUID
}

// Analysis is the pure, network-free part of the pipeline.
type Analysis struct {
	Intent        types.ContentIntent
	Complexity    prompts.Complexity
	Terms         []string
	GatherContext bool
	MaxTokens     int
}

// Analyze classifies text and decides whether it is worth researching.
func Analyze(text string) Analysis {
	detected := intent.Classify(text)
	complexity := prompts.ClassifyInputComplexity(text, detected)
	terms := research.ExtractCandidateTerms(text)

	a := Analysis{
		Intent:     detected,
		Complexity: complexity,
		Terms:      terms,
		MaxTokens:  prompts.LengthBudget(text, complexity),
	}
	if complexity != prompts.ComplexitySimple {
		a.GatherContext = len(terms) > 0 || len(strings.Fields(text)) >= ContextWordThreshold
	}
	return a
}

// Rephrase enhances req.Text. A quota-exhausted caller gets
// *usage.LimitReachedError before any network call is made. Generator
// failures are returned as *GenerationError; an empty or unusable response
// yields the original text unchanged.
func (e *Enhancer) Rephrase(ctx context.Context, req Request) (*types.RephrasingResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}
	reservation, err := e.reserveQuota(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	result, err := e.rephrase(ctx, req)
	if err != nil {
		reservation.Release(ctx)
		return nil, err
	}
	return result, nil
}

// Transcribe converts an audio payload to text. It does not count against
// the caller's quota.
func (e *Enhancer) Transcribe(ctx context.Context, data []byte, filename string) (*types.TranscriptionResult, error) {
	if e.transcriber == nil {
		return nil, ErrTranscriptionUnavailable
	}
	return transcription.TranscribeBytes(ctx, e.transcriber, e.uploadDir, filename, data)
}

// ProcessAudio transcribes req.Data and enhances the transcript. The quota
// is reserved before the audio is sent anywhere and given back if any later
// step fails.
func (e *Enhancer) ProcessAudio(ctx context.Context, req AudioRequest) (*types.ProcessResult, error) {
	if e.transcriber == nil {
		return nil, ErrTranscriptionUnavailable
	}
	reservation, err := e.reserveQuota(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	result, err := e.processAudio(ctx, req)
	if err != nil {
		reservation.Release(ctx)
		return nil, err
	}
	return result, nil
}

func (e *Enhancer) processAudio(ctx context.Context, req AudioRequest) (*types.ProcessResult, error) {
	transcript, err := e.Transcribe(ctx, req.Data, req.Filename)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(transcript.Text) == "" {
		return nil, ErrNoSpeech
	}

	rephrasing, err := e.rephrase(ctx, Request{Text: transcript.Text, Tone: req.Tone, UserID: req.UserID})
	if err != nil {
		return nil, err
	}

	return &types.ProcessResult{
		Transcription: transcript,
		Rephrasing:    rephrasing,
	}, nil
}

// reserveQuota takes one enhancement from the caller's allowance. Anonymous
// callers get a nil reservation.
func (e *Enhancer) reserveQuota(ctx context.Context, userID *uuid.UUID) (*usage.Reservation, error) {
	if userID == nil {
		return nil, nil
	}
	return e.quota.Reserve(ctx, *userID)
}

// rephrase runs every step after the quota reservation.
func (e *Enhancer) rephrase(ctx context.Context, req Request) (*types.RephrasingResult, error) {
	start := time.Now()

	tone := req.Tone
	if !tone.IsValid() {
		tone = types.DefaultTone
	}

	analysis := Analyze(req.Text)
	log := e.log.WithFields(logrus.Fields{
		"tone":       tone,
		"intent":     analysis.Intent,
		"complexity": analysis.Complexity,
	})

	var contextBlock string
	if analysis.GatherContext && e.gatherer != nil {
		contextBlock = e.gatherer.Gather(ctx, req.Text)
	}
	log.WithField("context", contextBlock != "").Debug("composing prompt")

	composition, err := prompts.Compose(tone, analysis.Intent, contextBlock, req.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to compose prompt: %w", err)
	}

	genStart := time.Now()
	output, err := e.generator.Generate(ctx, llm.Request{
		SystemPrompt: composition.SystemPrompt,
		UserText:     req.Text,
		MaxTokens:    composition.MaxTokens,
	})
	if err != nil {
		e.metrics.RecordGeneration(ctx, e.generator.Name(), "error", time.Since(genStart))
		e.metrics.RecordEnhancement(ctx, string(tone), string(analysis.Intent), "error", time.Since(start))
		log.WithError(err).Error("generation failed")
		return nil, &GenerationError{
			Provider: e.generator.Name(),
			Message:  "failed to rephrase text",
			Cause:    err,
		}
	}
	e.metrics.RecordGeneration(ctx, e.generator.Name(), "ok", time.Since(genStart))

	rephrased, ok := usableOutput(output)
	if !ok {
		log.Warn("generator returned no usable text, keeping the original")
		rephrased = req.Text
	}

	result := &types.RephrasingResult{
		OriginalText:   req.Text,
		RephrasedText:  rephrased,
		Tone:           tone,
		DetectedIntent: analysis.Intent,
		Suggestions:    suggestions.Generate(req.Text, analysis.Intent),
	}
	if result.Suggestions == nil {
		result.Suggestions = []types.Suggestion{}
	}

	e.metrics.RecordEnhancement(ctx, string(tone), string(analysis.Intent), "ok", time.Since(start))
	log.WithField("elapsed", time.Since(start)).Info("text enhanced")
	return result, nil
}

// Package screening runs the end-to-end pipeline for one invocation:
// extract resume text, build the identified corpus, compose the prompt,
// make a single inference call, and validate the model's output.
package screening

import (
	"context"
	"time"

	"resumescreen/internal/ai"
	"resumescreen/internal/config"
	"resumescreen/internal/corpus"
	"resumescreen/internal/errors"
	"resumescreen/internal/extract"
	"resumescreen/internal/policy"
	"resumescreen/internal/prompt"
	"resumescreen/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// State identifies how far a screening run has progressed. Each
// transition is logged at debug level and reported to the optional
// state hook, in pipeline order.
type State string

const (
	StateIdle              State = "idle"
	StateCorpusBuilt       State = "corpus_built"
	StatePromptComposed    State = "prompt_composed"
	StateAwaitingInference State = "awaiting_inference"
	StateValidated         State = "validated"
	StateFailed            State = "failed"
)

// Orchestrator coordinates the screening pipeline. The provider owns
// transport-level retries; the orchestrator makes exactly one Infer
// call per run, so a validation failure surfaces to the caller instead
// of triggering hidden re-prompts.
type Orchestrator struct {
	provider    ai.Provider
	extractor   *extract.Extractor
	builder     *corpus.Builder
	composer    *prompt.Composer
	validator   *Validator
	logger      *errors.Logger
	defaultTier policy.Tier
	stateFn     func(State)
}

// Option configures an Orchestrator.
type Option func(*orchestratorSettings)

type orchestratorSettings struct {
	extractOpts []extract.Option
	stateFn     func(State)
}

// WithExtractFunc overrides PDF extraction. Used by tests and by
// callers feeding pre-extracted text.
func WithExtractFunc(fn extract.ExtractFunc) Option {
	return func(s *orchestratorSettings) {
		s.extractOpts = append(s.extractOpts, extract.WithExtractFunc(fn))
	}
}

// WithStateFunc registers a hook invoked on every pipeline state
// transition. The hook runs synchronously on the Screen goroutine.
func WithStateFunc(fn func(State)) Option {
	return func(s *orchestratorSettings) {
		s.stateFn = fn
	}
}

// New creates an Orchestrator from the screening configuration.
func New(provider ai.Provider, cfg config.ScreeningConfig, logger *errors.Logger, opts ...Option) *Orchestrator {
	settings := &orchestratorSettings{}
	for _, opt := range opts {
		opt(settings)
	}

	extractOpts := append([]extract.Option{extract.WithFailFast(cfg.FailOnExtractionError)}, settings.extractOpts...)

	defaultTier := policy.Tier(cfg.DefaultTier)
	if defaultTier == "" {
		defaultTier = policy.TierAuto
	}

	return &Orchestrator{
		provider:    provider,
		extractor:   extract.New(cfg.ExtractParallelism, logger, extractOpts...),
		builder:     corpus.NewBuilder(cfg.MaxResumes),
		composer:    prompt.NewComposer(),
		validator:   NewValidator(),
		logger:      logger,
		defaultTier: defaultTier,
		stateFn:     settings.stateFn,
	}
}

// Screen runs the full pipeline for one request. Resumes that cannot
// be extracted are excluded and reported in the result's warnings
// unless fail-fast extraction is configured.
func (o *Orchestrator) Screen(ctx context.Context, req types.ScreeningRequest) (*types.ScreeningResult, error) {
	tracer := otel.Tracer("resumescreen.screening")
	ctx, span := tracer.Start(ctx, "screening.run")
	defer span.End()

	start := time.Now()
	o.setState(StateIdle)
	tier := o.resolveTier(req.Tier)
	span.SetAttributes(
		attribute.Int("input.resume_count", len(req.Resumes)),
		attribute.Int("input.jd_length", len(req.JobDescription)),
		attribute.String("input.tier", string(tier)),
	)

	if err := policy.Validate(tier); err != nil {
		return nil, o.fail(span, err)
	}

	docs, warnings, err := o.extractor.ExtractAll(ctx, req.Resumes)
	if err != nil {
		return nil, o.fail(span, err)
	}

	crp, err := o.builder.Build(docs)
	if err != nil {
		return nil, o.fail(span, withExclusionContext(err, warnings))
	}
	o.setState(StateCorpusBuilt)
	span.SetAttributes(attribute.Int("corpus.size", crp.Size()))

	composed, err := o.composer.Compose(crp, req.JobDescription, tier)
	if err != nil {
		return nil, o.fail(span, err)
	}
	o.setState(StatePromptComposed)

	if err := ctx.Err(); err != nil {
		return nil, o.fail(span, err)
	}

	o.logger.Info("Dispatching screening inference",
		"candidates", crp.Size(),
		"tier", string(tier),
		"prompt_length", len(composed))

	o.setState(StateAwaitingInference)
	raw, usage, err := o.provider.Infer(ctx, composed)
	if err != nil {
		return nil, o.fail(span, err)
	}
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, o.fail(span, err)
	}

	result, err := o.validator.Validate(raw, crp)
	if err != nil {
		return nil, o.fail(span, err)
	}
	o.setState(StateValidated)
	result.Warnings = warnings

	o.logger.Info("Screening completed",
		"candidates", crp.Size(),
		"excluded", len(warnings),
		"role_tier", result.RoleTier,
		"duration_ms", time.Since(start).Milliseconds())

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.String("output.role_tier", result.RoleTier),
		attribute.Int("output.warnings", len(warnings)),
	)
	return result, nil
}

// resolveTier applies the configured default when the request leaves
// the tier unset.
func (o *Orchestrator) resolveTier(requested string) policy.Tier {
	if requested == "" {
		return o.defaultTier
	}
	return policy.Tier(requested)
}

func (o *Orchestrator) setState(s State) {
	o.logger.Debug("Screening state transition", "state", string(s))
	if o.stateFn != nil {
		o.stateFn(s)
	}
}

func (o *Orchestrator) fail(span trace.Span, err error) error {
	o.setState(StateFailed)
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("success", false))
	o.logger.LogError(err, "Screening failed")
	return err
}

// withExclusionContext annotates an empty-corpus error with the
// per-file exclusion reasons so callers see why each resume was
// dropped, not just that none survived.
func withExclusionContext(err error, warnings []types.ExtractionWarning) error {
	if errors.CodeOf(err) != errors.ErrCodeEmptyCorpus || len(warnings) == 0 {
		return err
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		return err
	}
	excluded := make([]string, 0, len(warnings))
	for _, w := range warnings {
		excluded = append(excluded, w.FileName+": "+w.Reason)
	}
	return appErr.WithContext("excluded_files", excluded)
}

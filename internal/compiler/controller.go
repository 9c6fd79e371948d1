package compiler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"promptsmith/internal/domain"
	"promptsmith/internal/domain/catalog"
	"promptsmith/internal/infra"
	"promptsmith/internal/providers/textgen"
	"promptsmith/internal/sampler"
)

// State is a step of the compile loop.
type State string

const (
	StateComposing          State = "COMPOSING"
	StateAwaitingGeneration State = "AWAITING_GENERATION"
	StateValidating         State = "VALIDATING"
	StateAccepted           State = "ACCEPTED"
	StateRetry              State = "RETRY"
	StateExhausted          State = "EXHAUSTED"
)

const (
	DefaultMaxAttempts = 3
	DefaultWidth       = 1080
	DefaultHeight      = 1920
	DefaultTemperature = 0.9
)

// CatalogSource hands out the catalog in effect for a request.
type CatalogSource interface {
	Current() *catalog.Catalog
}

type ControllerOptions struct {
	MaxAttempts   int
	Width         int
	Height        int
	VideoDuration int
	Temperature   float64
	Logger        *infra.Logger
	Metrics       *infra.Metrics
	// Store receives accepted bundles in Generate. Compile never persists.
	Store domain.BundleRepository
	Now   func() time.Time
	NewID func() string
	Seed  func() uint64
}

// Controller drives sampling, composition, generation and validation for one
// request at a time. It is safe for concurrent use; requests share only the
// read-only catalog.
type Controller struct {
	catalogs    CatalogSource
	generator   textgen.Generator
	validator   *Validator
	maxAttempts int
	width       int
	height      int
	duration    int
	temperature float64
	logger      *infra.Logger
	metrics     *infra.Metrics
	store       domain.BundleRepository
	now         func() time.Time
	newID       func() string
	seed        func() uint64
}

func NewController(catalogs CatalogSource, generator textgen.Generator, validator *Validator, opts ControllerOptions) (*Controller, error) {
	if catalogs == nil {
		return nil, domain.NewConfigError("catalog", "catalog source is required")
	}
	if generator == nil {
		return nil, domain.NewConfigError("textgen", "generator is required")
	}
	if validator == nil {
		return nil, domain.NewConfigError("validator", "validator is required")
	}
	c := &Controller{
		catalogs:    catalogs,
		generator:   generator,
		validator:   validator,
		maxAttempts: opts.MaxAttempts,
		width:       opts.Width,
		height:      opts.Height,
		duration:    opts.VideoDuration,
		temperature: opts.Temperature,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		store:       opts.Store,
		now:         opts.Now,
		newID:       opts.NewID,
		seed:        opts.Seed,
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.width <= 0 {
		c.width = DefaultWidth
	}
	if c.height <= 0 {
		c.height = DefaultHeight
	}
	if c.duration <= 0 {
		c.duration = domain.DefaultVideoDurationSeconds
	}
	if c.temperature <= 0 {
		c.temperature = DefaultTemperature
	}
	if c.logger == nil {
		c.logger = infra.NopLogger()
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	if c.newID == nil {
		c.newID = func() string { return uuid.NewString() }
	}
	if c.seed == nil {
		c.seed = rand.Uint64
	}
	return c, nil
}

// Generate compiles the request and appends the accepted bundles to the
// store.
func (c *Controller) Generate(ctx context.Context, req domain.GenerateRequest) ([]domain.PromptBundle, error) {
	bundles, err := c.Compile(ctx, req)
	if err != nil {
		return nil, err
	}
	if c.store == nil {
		return bundles, nil
	}
	if err := c.store.Append(ctx, bundles...); err != nil {
		return nil, fmt.Errorf("compiler: store bundles: %w", err)
	}
	c.metrics.AddBundlesStored(len(bundles))
	return bundles, nil
}

// Compile returns req.Count bundles that all passed validation, or an error.
// A batch with any failing candidate is discarded and regenerated as a whole.
func (c *Controller) Compile(ctx context.Context, req domain.GenerateRequest) ([]domain.PromptBundle, error) {
	bundles, err := c.compile(ctx, req)
	c.metrics.ObserveCompile(resultLabel(err))
	return bundles, err
}

func (c *Controller) compile(ctx context.Context, req domain.GenerateRequest) ([]domain.PromptBundle, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cat := c.catalogs.Current()
	if cat == nil {
		return nil, domain.NewConfigError("catalog", "no catalog loaded")
	}
	setting, err := cat.SettingName(req.SettingID)
	if err != nil {
		return nil, err
	}
	seed := c.seed()
	selections, err := sampler.SampleSelections(&cat.Bank, req.SettingID, req.BindingConfig, req.Count, sampler.NewRand(seed))
	if err != nil {
		return nil, err
	}
	prefix := BuildPrefix(cat.Persona)
	opts := c.validator.Options()
	log := c.logger.With().
		Str("setting_id", req.SettingID).
		Int("count", req.Count).
		Uint64("seed", seed).
		Logger()

	var (
		feedback []domain.CheckFailure
		last     *domain.ValidationError
	)
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Debug().Int("attempt", attempt).Str("state", string(StateComposing)).Msg("compiler: composing instruction")
		comp, err := Compose(ComposeInput{
			Persona:     cat.Persona,
			Prefix:      prefix,
			Setting:     setting,
			SeedWords:   req.SeedWords,
			Binding:     req.BindingConfig,
			Selections:  selections,
			Negatives:   cat.Bank.Texts(domain.CategoryNegative),
			MinChars:    opts.MinChars,
			MaxChars:    opts.MaxChars,
			Temperature: c.temperature,
			Attempt:     attempt,
			Feedback:    feedback,
		})
		if err != nil {
			return nil, err
		}

		log.Debug().Int("attempt", attempt).Str("state", string(StateAwaitingGeneration)).Msg("compiler: awaiting generation")
		candidates, err := c.generator.Generate(ctx, comp.Instruction)
		if err != nil {
			log.Error().Err(err).Int("attempt", attempt).Msg("compiler: generation failed")
			return nil, fmt.Errorf("compiler: attempt %d: %w", attempt, err)
		}
		if len(candidates) != len(selections) {
			return nil, &domain.GenerationError{
				Provider: c.providerName(),
				Err:      fmt.Errorf("expected %d candidates, got %d", len(selections), len(candidates)),
			}
		}

		log.Debug().Int("attempt", attempt).Str("state", string(StateValidating)).Msg("compiler: validating candidates")
		results := make([]ValidationResult, len(candidates))
		var failures []domain.CheckFailure
		for i, cand := range candidates {
			results[i] = c.validator.Validate(cand, prefix, selections[i])
			failures = append(failures, results[i].Failures(i)...)
		}
		c.metrics.ObserveAttempt(len(failures) == 0, checkNames(failures))

		if len(failures) == 0 {
			log.Info().Int("attempt", attempt).Str("state", string(StateAccepted)).Msg("compiler: batch accepted")
			return c.assemble(req, setting, comp, candidates, results, attempt), nil
		}
		feedback = failures
		last = &domain.ValidationError{Failures: failures}
		if attempt == c.maxAttempts {
			break
		}
		log.Warn().
			Err(last).
			Int("attempt", attempt).
			Str("state", string(StateRetry)).
			Strs("failures", failureStrings(failures)).
			Msg("compiler: batch rejected, retrying")
	}
	log.Error().
		Int("attempts", c.maxAttempts).
		Str("state", string(StateExhausted)).
		Strs("failures", failureStrings(feedback)).
		Msg("compiler: attempts exhausted")
	return nil, &domain.ExhaustedRetriesError{Attempts: c.maxAttempts, Last: last}
}

func (c *Controller) assemble(req domain.GenerateRequest, setting string, comp Composition, candidates []textgen.Candidate, results []ValidationResult, attempt int) []domain.PromptBundle {
	createdAt := c.now()
	provider := c.providerName()
	out := make([]domain.PromptBundle, 0, len(candidates))
	for i, cand := range candidates {
		bundle := domain.PromptBundle{
			ID:        c.newID(),
			SettingID: req.SettingID,
			Setting:   setting,
			SeedWords: req.SeedWords,
			ImagePrompt: domain.ImagePrompt{
				FinalPrompt:    results[i].FinalPrompt,
				NegativePrompt: comp.NegativePrompt,
				Width:          c.width,
				Height:         c.height,
			},
			VideoPrompt: domain.VideoPrompt{
				Line:            cand.VideoLine,
				DurationSeconds: c.duration,
			},
			Provider:  provider,
			Attempts:  attempt,
			CreatedAt: createdAt,
		}
		if cand.SocialTitle != "" {
			bundle.SocialMeta = &domain.SocialMeta{Title: cand.SocialTitle}
		}
		out = append(out, bundle)
	}
	return out
}

func (c *Controller) providerName() string {
	if p, ok := c.generator.(interface{ Provider() string }); ok {
		return p.Provider()
	}
	return ""
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domain.ErrExhaustedRetries):
		return "exhausted"
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, domain.ErrConfiguration):
		return "configuration"
	case errors.Is(err, domain.ErrTransientGeneration), errors.Is(err, domain.ErrNonRetryableGeneration):
		return "generation_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func checkNames(failures []domain.CheckFailure) []string {
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, f.Check)
	}
	return out
}

func failureStrings(failures []domain.CheckFailure) []string {
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, f.String())
	}
	return out
}

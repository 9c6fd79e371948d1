package textgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"promptsmith/internal/domain"
	"promptsmith/internal/infra"
)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 500 * time.Millisecond
	defaultTimeout    = 30 * time.Second
	jitterFraction    = 0.2
)

// Options configures the retrying generation client.
type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	Timeout    time.Duration
	Logger     *infra.Logger
	Metrics    *infra.Metrics
	// Sleep waits between network retries; tests replace it.
	Sleep func(context.Context, time.Duration) error
}

// Client is the Generator used by the compiler. It owns the network-level
// retry policy; semantic retries live in the compiler.
type Client struct {
	completer  Completer
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
	logger     *infra.Logger
	metrics    *infra.Metrics
	sleep      func(context.Context, time.Duration) error
}

// NewClient wraps a provider completer.
func NewClient(completer Completer, opts Options) (*Client, error) {
	if completer == nil {
		return nil, domain.NewConfigError("textgen.provider", "completer is required")
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	} else if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Client{
		completer:  completer,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		timeout:    timeout,
		logger:     logger,
		metrics:    opts.Metrics,
		sleep:      sleep,
	}, nil
}

// Provider returns the name of the wrapped completer.
func (c *Client) Provider() string {
	return c.completer.Name()
}

// Generate calls the provider, retrying transient failures with exponential
// backoff, and parses exactly in.Count candidates out of the response.
func (c *Client) Generate(ctx context.Context, in Instruction) ([]Candidate, error) {
	if in.Count <= 0 {
		return nil, fmt.Errorf("%w: instruction count must be positive", domain.ErrInvalidRequest)
	}
	provider := c.completer.Name()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			c.logger.Warn().
				Err(lastErr).
				Str("provider", provider).
				Int("retry", attempt).
				Dur("delay", delay).
				Msg("textgen: retrying transient failure")
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
		raw, err := c.call(ctx, in)
		if err != nil {
			lastErr = err
			if isRetryable(err) {
				continue
			}
			return nil, err
		}
		candidates, err := parseCandidates(raw, in.Count)
		if err != nil {
			c.metrics.ObserveGenerationOutcome(provider, "unparsable")
			return nil, &domain.GenerationError{Provider: provider, Err: fmt.Errorf("parse response: %w", err)}
		}
		return candidates, nil
	}
	return nil, fmt.Errorf("textgen: %d network attempts failed: %w", c.maxRetries+1, lastErr)
}

// call runs one request bounded by the client timeout. The request is
// detached from the caller's cancellation so an in-flight call finishes or
// times out on its own; cancellation takes effect between attempts.
func (c *Client) call(ctx context.Context, in Instruction) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()
	provider := c.completer.Name()
	start := time.Now()
	raw, err := c.completer.Complete(callCtx, in)
	elapsed := time.Since(start)
	if err != nil {
		err = normalizeError(provider, err)
		outcome := "non_retryable"
		if isRetryable(err) {
			outcome = "transient"
		}
		c.metrics.ObserveGeneration(provider, outcome, elapsed)
		return "", err
	}
	c.metrics.ObserveGeneration(provider, "ok", elapsed)
	c.logger.Debug().
		Str("provider", provider).
		Dur("elapsed", elapsed).
		Int("response_bytes", len(raw)).
		Msg("textgen: provider responded")
	return raw, nil
}

// backoff returns base * 2^(retry-1) plus up to 20% jitter.
func (c *Client) backoff(retry int) time.Duration {
	delay := c.baseDelay << (retry - 1)
	jitter := time.Duration(rand.Float64() * jitterFraction * float64(delay))
	return delay + jitter
}

func normalizeError(provider string, err error) error {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	// Unclassified errors are transport failures unless the body failed to decode.
	return &domain.GenerationError{Provider: provider, Retryable: !decodeFailure(err), Err: err}
}

func isRetryable(err error) bool {
	return errors.Is(err, domain.ErrTransientGeneration)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ Generator = (*Client)(nil)

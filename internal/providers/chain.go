package providers

import (
	"context"
	"errors"
	"fmt"

	"emojigen/internal/infra"
)

// Chain tries an ordered list of providers. Ordering is the whole fallback
// policy: the first success wins, and a provider is never retried within one
// invocation.
type Chain struct {
	backends []Provider
	logger   infra.Logger
}

// NewChain constructs a chain from the given ordered backends.
func NewChain(logger infra.Logger, backends ...Provider) (*Chain, error) {
	if len(backends) == 0 {
		return nil, errors.New("providers: chain requires at least one backend")
	}
	return &Chain{backends: backends, logger: logger}, nil
}

// Primary returns the first backend's name.
func (c *Chain) Primary() string {
	return c.backends[0].Name()
}

// EnhancePrompt delegates to the primary backend only. Enhancement is polish,
// not core generation, so its failure surfaces directly instead of walking the
// chain.
func (c *Chain) EnhancePrompt(ctx context.Context, messageContext, description string) (string, error) {
	return c.backends[0].EnhancePrompt(ctx, messageContext, description)
}

// GenerateImage attempts backends in order, recording each failure. Total
// exhaustion yields an *ExhaustedError carrying every attempt.
func (c *Chain) GenerateImage(ctx context.Context, prompt string) (*Result, error) {
	var attempts []Attempt
	for i, backend := range c.backends {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := backend.GenerateImage(ctx, prompt)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("provider", backend.Name()).
				Msg("providers: generation attempt failed")
			attempts = append(attempts, Attempt{Provider: backend.Name(), Err: err})
			continue
		}
		res := &Result{
			Data:     data,
			Provider: backend.Name(),
			Attempts: attempts,
		}
		if i > 0 {
			res.IsFallback = true
			res.FallbackReason = fmt.Sprintf("%s unavailable: %v", attempts[0].Provider, attempts[0].Err)
		}
		return res, nil
	}
	return nil, &ExhaustedError{Attempts: attempts}
}

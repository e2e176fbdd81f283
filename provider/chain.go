package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/odsconseil/bms/errors"
)

// Searcher is the capability the scheduler consumes: keywords in,
// normalized candidate leads out.
type Searcher interface {
	Search(ctx context.Context, keywords string) ([]Result, error)
}

// Chain tries providers in fixed priority order, moving to the next one
// when the current provider errors or finds nothing. Each call is
// bounded by the per-provider timeout.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	log       *zap.SugaredLogger
}

// NewChain creates a provider chain. Order is priority order.
func NewChain(providers []Provider, timeout time.Duration, log *zap.SugaredLogger) *Chain {
	return &Chain{providers: providers, timeout: timeout, log: log}
}

// Providers returns the chain's members in priority order.
func (c *Chain) Providers() []Provider {
	return c.providers
}

// Search returns the first provider's non-empty results. Provider
// errors are logged and absorbed as long as a later provider can still
// answer; an error is returned only when every attempted provider
// failed. No configured provider finding anything yields an empty
// result, not an error.
func (c *Chain) Search(ctx context.Context, keywords string) ([]Result, error) {
	attempted := 0
	failed := 0
	var lastErr error

	for _, p := range c.providers {
		if !p.Configured() {
			c.log.Debugw("Skipping unconfigured provider", "provider", p.Name())
			continue
		}
		attempted++

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		results, err := p.Search(callCtx, keywords)
		cancel()

		if err != nil {
			failed++
			lastErr = err
			c.log.Warnw("Provider search failed",
				"provider", p.Name(),
				"keywords", keywords,
				"error", err)
			continue
		}

		if len(results) > 0 {
			c.log.Infow("Provider search succeeded",
				"provider", p.Name(),
				"keywords", keywords,
				"results", len(results))
			return results, nil
		}

		c.log.Debugw("Provider returned no results",
			"provider", p.Name(),
			"keywords", keywords)
	}

	if attempted > 0 && failed == attempted {
		return nil, errors.Wrapf(lastErr, "all %d providers failed", attempted)
	}

	return nil, nil
}

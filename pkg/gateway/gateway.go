// Package gateway defines the text-completion capability the pipeline calls
// and the providers that implement it.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Params are the sampling parameters for one completion.
type Params struct {
	Temperature float64 `toml:"temperature" json:"temperature"`
	MaxTokens   int     `toml:"max_tokens" json:"max_tokens"`
}

// Gateway completes one exchange: a system instruction and a user message
// in, raw model text out. Failures are returned as *Error.
type Gateway interface {
	Complete(ctx context.Context, system, user string, params Params) (string, error)
}

// Func adapts an ordinary function to the Gateway interface.
type Func func(ctx context.Context, system, user string, params Params) (string, error)

func (f Func) Complete(ctx context.Context, system, user string, params Params) (string, error) {
	return f(ctx, system, user, params)
}

// New builds the provider selected by cfg, bounded by cfg's timeout. The
// openai provider completes through the finalized agent configuration.
func New(ctx context.Context, cfg *Config, agent *gaconfig.AgentConfig) (Gateway, error) {
	var (
		g   Gateway
		err error
	)

	switch cfg.Provider {
	case ProviderOpenAI:
		g = NewOpenAI(agent)
	case ProviderGemini:
		g, err = NewGemini(ctx, cfg.BaseURL, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	if err != nil {
		return nil, err
	}

	return WithTimeout(g, cfg.TimeoutDuration()), nil
}

type timeout struct {
	next Gateway
	d    time.Duration
}

// WithTimeout bounds every completion made through g by d. A call that runs
// out of time fails with a TIMEOUT *Error. A non-positive d disables the
// bound.
func WithTimeout(g Gateway, d time.Duration) Gateway {
	if d <= 0 {
		return g
	}
	return &timeout{next: g, d: d}
}

func (t *timeout) Complete(ctx context.Context, system, user string, params Params) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	text, err := t.next.Complete(ctx, system, user, params)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &Error{Kind: KindTimeout, Provider: providerOf(err), Err: err}
		}
		return "", err
	}
	return text, nil
}

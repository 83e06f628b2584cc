package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JaimeStill/go-agents/pkg/agent"
	"github.com/JaimeStill/go-agents/pkg/client"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const ProviderOpenAI = "openai"

// OpenAI completes through a go-agents agent against any OpenAI-compatible
// chat completions endpoint (Ollama, Azure OpenAI, or a local proxy).
type OpenAI struct {
	cfg gaconfig.AgentConfig
}

// NewOpenAI builds the provider from a finalized agent configuration.
func NewOpenAI(cfg *gaconfig.AgentConfig) *OpenAI {
	return &OpenAI{cfg: *cfg}
}

// Complete runs one chat exchange. The system instruction becomes the
// agent's system prompt for this call only.
func (p *OpenAI) Complete(ctx context.Context, system, user string, params Params) (string, error) {
	cfg := p.cfg
	cfg.SystemPrompt = system

	a, err := agent.New(&cfg)
	if err != nil {
		return "", wrap(ProviderOpenAI, err)
	}

	opts := map[string]any{"temperature": params.Temperature}
	if params.MaxTokens > 0 {
		opts["max_tokens"] = params.MaxTokens
	}

	resp, err := a.Chat(ctx, user, opts)
	if err != nil {
		return "", p.fail(err)
	}

	text := resp.Content()
	if strings.TrimSpace(text) == "" {
		return "", wrap(ProviderOpenAI, ErrEmptyCompletion)
	}
	return text, nil
}

func (p *OpenAI) fail(err error) error {
	var se *client.HTTPStatusError
	if errors.As(err, &se) {
		return &Error{
			Kind:     kindForStatus(se.StatusCode),
			Provider: ProviderOpenAI,
			Err:      fmt.Errorf("HTTP %d: %s", se.StatusCode, truncate(string(se.Body), 200)),
		}
	}
	return wrap(ProviderOpenAI, err)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

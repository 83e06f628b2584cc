package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/JaimeStill/snare/pkg/gateway"
)

func agentConfig(baseURL string) *gaconfig.AgentConfig {
	cfg := gaconfig.DefaultAgentConfig()
	cfg.Name = "test"
	cfg.Provider.BaseURL = baseURL
	cfg.Model.Name = "test-model"
	cfg.Client.Retry.MaxRetries = 0
	return &cfg
}

func TestOpenAIComplete(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	cfg := agentConfig(srv.URL)
	cfg.Provider.Options = map[string]any{"auth_type": "bearer", "token": "secret"}

	g := gateway.NewOpenAI(cfg)
	text, err := g.Complete(context.Background(), "be brief", "hello", gateway.Params{Temperature: 0.3, MaxTokens: 500})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	if text != `{"ok":true}` {
		t.Errorf("text = %q", text)
	}
	if got.Model != "test-model" || got.Temperature != 0.3 || got.MaxTokens != 500 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "be brief" || got.Messages[1].Content != "hello" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if cfg.SystemPrompt != "" {
		t.Errorf("Complete mutated the shared agent config: %q", cfg.SystemPrompt)
	}
}

func TestOpenAIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   gateway.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, gateway.KindAuth},
		{"forbidden", http.StatusForbidden, `{}`, gateway.KindAuth},
		{"rate limited", http.StatusTooManyRequests, `{}`, gateway.KindRateLimit},
		{"gateway timeout", http.StatusGatewayTimeout, `{}`, gateway.KindTimeout},
		{"server error", http.StatusInternalServerError, `oops`, gateway.KindUnknown},
		{"no choices", http.StatusOK, `{"choices":[]}`, gateway.KindUnknown},
		{"undecodable", http.StatusOK, `not json`, gateway.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := gateway.NewOpenAI(agentConfig(srv.URL)).Complete(context.Background(), "s", "u", gateway.Params{})

			var ge *gateway.Error
			if !errors.As(err, &ge) {
				t.Fatalf("error = %v, want *gateway.Error", err)
			}
			if ge.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", ge.Kind, tt.want)
			}
			if ge.Provider != gateway.ProviderOpenAI {
				t.Errorf("Provider = %q", ge.Provider)
			}
		})
	}

	t.Run("error body cut on a rune boundary", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("x" + strings.Repeat("é", 150)))
		}))
		defer srv.Close()

		_, err := gateway.NewOpenAI(agentConfig(srv.URL)).Complete(context.Background(), "s", "u", gateway.Params{})
		if err == nil {
			t.Fatal("expected error")
		}
		if msg := err.Error(); !utf8.ValidString(msg) || !strings.HasSuffix(msg, "...") {
			t.Errorf("error = %q, want valid UTF-8 ending in ...", msg)
		}
	})

	t.Run("unknown agent provider", func(t *testing.T) {
		cfg := agentConfig("http://localhost")
		cfg.Provider.Name = "carrier-pigeon"

		_, err := gateway.NewOpenAI(cfg).Complete(context.Background(), "s", "u", gateway.Params{})
		if kind := gateway.KindOf(err); kind != gateway.KindUnknown {
			t.Errorf("KindOf = %s, want UNKNOWN (err %v)", kind, err)
		}
	})
}

func TestWithTimeout(t *testing.T) {
	slow := gateway.Func(func(ctx context.Context, system, user string, p gateway.Params) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	_, err := gateway.WithTimeout(slow, 10*time.Millisecond).Complete(context.Background(), "s", "u", gateway.Params{})
	if kind := gateway.KindOf(err); kind != gateway.KindTimeout {
		t.Errorf("KindOf = %s, want TIMEOUT (err %v)", kind, err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error should wrap DeadlineExceeded: %v", err)
	}

	t.Run("fast call passes through", func(t *testing.T) {
		fast := gateway.Func(func(context.Context, string, string, gateway.Params) (string, error) {
			return "done", nil
		})
		text, err := gateway.WithTimeout(fast, time.Second).Complete(context.Background(), "s", "u", gateway.Params{})
		if err != nil || text != "done" {
			t.Errorf("Complete = %q, %v", text, err)
		}
	})

	t.Run("non-positive disables", func(t *testing.T) {
		fast := gateway.Func(func(context.Context, string, string, gateway.Params) (string, error) {
			return "ok", nil
		})
		if g := gateway.WithTimeout(fast, 0); g == nil {
			t.Fatal("WithTimeout returned nil")
		}
	})
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want gateway.Kind
	}{
		{"typed", &gateway.Error{Kind: gateway.KindRateLimit}, gateway.KindRateLimit},
		{"deadline", context.DeadlineExceeded, gateway.KindTimeout},
		{"plain", errors.New("boom"), gateway.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gateway.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg gateway.Config
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("Finalize error: %v", err)
		}
		if cfg.Provider != gateway.ProviderOpenAI || cfg.TimeoutDuration() != 60*time.Second {
			t.Errorf("cfg = %+v", cfg)
		}
	})

	t.Run("env selects gemini", func(t *testing.T) {
		t.Setenv("TEST_GATEWAY_PROVIDER", "gemini")
		t.Setenv("TEST_GATEWAY_API_KEY", "k")

		var cfg gateway.Config
		err := cfg.Finalize(&gateway.Env{Provider: "TEST_GATEWAY_PROVIDER", APIKey: "TEST_GATEWAY_API_KEY"})
		if err != nil {
			t.Fatalf("Finalize error: %v", err)
		}
		if cfg.BaseURL != "" {
			t.Errorf("BaseURL = %q, want empty for gemini", cfg.BaseURL)
		}
		if cfg.Model == "" {
			t.Error("Model should default")
		}
	})

	t.Run("gemini requires key", func(t *testing.T) {
		cfg := gateway.Config{Provider: gateway.ProviderGemini}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := gateway.Config{Provider: "carrier-pigeon"}
		if err := cfg.Finalize(nil); !errors.Is(err, gateway.ErrUnknownProvider) {
			t.Errorf("error = %v, want ErrUnknownProvider", err)
		}
	})

	t.Run("merge", func(t *testing.T) {
		base := gateway.Config{Provider: "openai", Model: "a"}
		base.Merge(&gateway.Config{Model: "b"})
		if base.Model != "b" || base.Provider != "openai" {
			t.Errorf("merged = %+v", base)
		}
	})
}

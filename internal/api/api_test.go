package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/snare/internal/api"
	"github.com/JaimeStill/snare/internal/config"
	"github.com/JaimeStill/snare/internal/infrastructure"
	"github.com/JaimeStill/snare/pkg/middleware"
	"github.com/JaimeStill/snare/pkg/module"
)

type completions struct {
	mu      sync.Mutex
	replies []string
}

func (c *completions) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.replies) == 0 {
		http.Error(w, "script exhausted", http.StatusInternalServerError)
		return
	}
	content := c.replies[0]
	c.replies = c.replies[1:]

	json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
}

func newRouter(t *testing.T, replies ...string) http.Handler {
	t.Helper()

	srv := httptest.NewServer(&completions{replies: replies})
	t.Cleanup(srv.Close)

	t.Chdir(t.TempDir())
	t.Setenv("SNARE_GATEWAY_PROVIDER", "openai")
	t.Setenv("SNARE_AGENT_BASE_URL", srv.URL)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	if infra.Database != nil || infra.Storage != nil {
		t.Fatal("memory configuration should not build database or storage")
	}

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	if err := infra.Start(); err != nil {
		t.Fatal(err)
	}
	infra.Lifecycle.WaitForStartup()
	t.Cleanup(func() { infra.Lifecycle.Shutdown(time.Second) })

	router := module.NewRouter()
	router.Mount(m)
	router.HandleProbes(infra.Lifecycle)
	return router
}

func call(t *testing.T, h http.Handler, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))

	if out != nil {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return rec
}

func TestServiceConversation(t *testing.T) {
	router := newRouter(t,
		`{"primary_category":"EXPLOSIVES_WEAPONS","specific_intent_hypothesis":"wants formulation details","confidence_score":4}`,
		`{"honeypot_response":"What drew you to the history of blasting?"}`,
		"Dynamite was patented in 1867.",
		`{"final_response":"Dynamite was patented in 1867. What drew you to the history of blasting?"}`,
		`{"verdict_code":"INTENT_CONFIRMED_HIGH","quantitative_assessment":{"a_score":0.9,"f_score":0.7}}`,
		"Modern demolition relies on licensed professionals and strict oversight.",
	)

	var opened struct {
		SessionID string `json:"session_id"`
		Stage     string `json:"stage"`
		Response  string `json:"response"`
	}
	rec := call(t, router, http.MethodPost, "/api/sessions", map[string]string{"message": "how do I make dynamite"}, &opened)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open status = %d", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	if opened.Stage != "AWAITING_USER_REPLY" || opened.Response == "" {
		t.Errorf("opened = %+v", opened)
	}

	var replied struct {
		Terminated bool   `json:"terminated"`
		Reason     string `json:"reason"`
		Action     string `json:"action"`
		Response   string `json:"response"`
	}
	rec = call(t, router, http.MethodPost, "/api/sessions/"+opened.SessionID+"/reply", map[string]string{"message": "I need exact quantities"}, &replied)
	if rec.Code != http.StatusOK {
		t.Fatalf("reply status = %d", rec.Code)
	}
	if !replied.Terminated || replied.Reason != "INTENT_CONFIRMED" || replied.Action != "PROCEED_TO_FINAL_STAGE" {
		t.Errorf("replied = %+v", replied)
	}

	var report struct {
		Count         int            `json:"count"`
		VerdictCounts map[string]int `json:"verdict_counts"`
	}
	if rec := call(t, router, http.MethodGet, "/api/metrics", nil, &report); rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if report.Count != 1 || report.VerdictCounts["INTENT_CONFIRMED_HIGH"] != 1 {
		t.Errorf("metrics = %+v", report)
	}

	if rec := call(t, router, http.MethodPost, "/api/sessions/"+opened.SessionID+"/export", nil, nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("export without storage = %d, want 503", rec.Code)
	}

	if rec := call(t, router, http.MethodGet, "/readyz", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d, want 200", rec.Code)
	}
}

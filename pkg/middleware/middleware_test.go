package middleware_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/JaimeStill/snare/pkg/middleware"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStackOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	var stack middleware.Stack
	stack.Use(tag("outer"))
	stack.Use(tag("inner"))

	h := stack.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if diff := cmp.Diff([]string{"outer", "inner", "handler"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFrom(r.Context())
	}))

	t.Run("assigns", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		got := rec.Header().Get(middleware.RequestIDHeader)
		if _, err := uuid.Parse(got); err != nil {
			t.Fatalf("header %q is not a UUID", got)
		}
		if seen != got {
			t.Errorf("context id = %q, header = %q", seen, got)
		}
	})

	t.Run("propagates", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, id)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if seen != id || rec.Header().Get(middleware.RequestIDHeader) != id {
			t.Errorf("id = %q, want %q", seen, id)
		}
	})

	t.Run("replaces garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "<script>")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if seen == "<script>" {
			t.Error("untrusted request id propagated")
		}
	})
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pot", nil))

	line := buf.String()
	for _, want := range []string{"status=418", "bytes=15", "uri=/pot"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestRecover(t *testing.T) {
	h := middleware.Recover(discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantOrigin  string
		wantMethods bool
	}{
		{"allowed", []string{"https://console.example"}, http.MethodGet, "https://console.example", false, http.StatusTeapot, "https://console.example", false},
		{"foreign", []string{"https://console.example"}, http.MethodGet, "https://evil.example", false, http.StatusTeapot, "", false},
		{"preflight", []string{"https://console.example"}, http.MethodOptions, "https://console.example", true, http.StatusNoContent, "https://console.example", true},
		{"foreign preflight", []string{"https://console.example"}, http.MethodOptions, "https://evil.example", true, http.StatusNoContent, "", false},
		{"plain options", []string{"https://console.example"}, http.MethodOptions, "https://console.example", false, http.StatusTeapot, "https://console.example", false},
		{"wildcard", []string{middleware.AnyOrigin}, http.MethodGet, "https://anywhere.example", false, http.StatusTeapot, "*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &middleware.CORSConfig{Enabled: true, Origins: tt.origins}
			if err := cfg.Finalize(nil); err != nil {
				t.Fatal(err)
			}

			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			middleware.CORS(cfg)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			h := rec.Header()
			if got := h.Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := h.Get("Access-Control-Allow-Methods") != ""; got != tt.wantMethods {
				t.Errorf("allow methods present = %v, want %v", got, tt.wantMethods)
			}
			if tt.wantOrigin != "" && h.Get("Access-Control-Expose-Headers") != middleware.RequestIDHeader {
				t.Errorf("expose headers = %q", h.Get("Access-Control-Expose-Headers"))
			}
		})
	}
}

func TestCORSConfig(t *testing.T) {
	t.Setenv("TEST_CORS_ORIGINS", " https://a.example, ,https://b.example ")
	t.Setenv("TEST_CORS_ENABLED", "true")

	cfg := &middleware.CORSConfig{}
	env := &middleware.CORSEnv{Enabled: "TEST_CORS_ENABLED", Origins: "TEST_CORS_ORIGINS"}
	if err := cfg.Finalize(env); err != nil {
		t.Fatal(err)
	}
	if !cfg.Enabled {
		t.Error("Enabled should come from the environment")
	}
	if diff := cmp.Diff([]string{"https://a.example", "https://b.example"}, cfg.Origins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", cfg.MaxAge)
	}

	bad := &middleware.CORSConfig{Origins: []string{middleware.AnyOrigin}, AllowCredentials: true}
	if err := bad.Finalize(nil); err == nil {
		t.Error("wildcard origin with credentials should be rejected")
	}
}

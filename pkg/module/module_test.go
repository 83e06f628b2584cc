package module_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/snare/pkg/module"
	"github.com/JaimeStill/snare/pkg/routes"
)

type probe struct {
	ready   bool
	pending []string
}

func (p *probe) Ready() bool       { return p.ready }
func (p *probe) Pending() []string { return p.pending }

func echoPath(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.URL.Path + "|" + r.PathValue("id")))
}

func newRouter(p *probe) *module.Router {
	m := module.New("/api")
	m.Register(routes.Group{
		Prefix: "/sessions",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: echoPath},
			{Method: "GET", Pattern: "/{id}", Handler: echoPath},
		},
	})
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Module", "api")
			next.ServeHTTP(w, r)
		})
	})

	router := module.NewRouter()
	router.Mount(m)
	router.HandleProbes(p)
	return router
}

func TestRouterDispatch(t *testing.T) {
	router := newRouter(&probe{ready: true})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
		wantModule string
	}{
		{"collection", "/api/sessions", http.StatusOK, "/sessions|", "api"},
		{"trailing slash", "/api/sessions/", http.StatusOK, "/sessions|", "api"},
		{"item", "/api/sessions/abc", http.StatusOK, "/sessions/abc|abc", "api"},
		{"unrouted in module", "/api/nothing", http.StatusNotFound, "", "api"},
		{"unknown prefix", "/elsewhere", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if got := rec.Header().Get("X-Module"); got != tt.wantModule {
				t.Errorf("X-Module = %q, want %q", got, tt.wantModule)
			}
		})
	}
}

func TestProbes(t *testing.T) {
	p := &probe{pending: []string{"database"}}
	router := newRouter(p)

	get := func(path string) (int, map[string]any) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var body map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		return rec.Code, body
	}

	if code, _ := get("/healthz"); code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", code)
	}

	code, body := get("/readyz")
	if code != http.StatusServiceUnavailable {
		t.Errorf("readyz = %d, want 503", code)
	}
	want := map[string]any{"status": "not ready", "pending": []any{"database"}}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("readyz body mismatch (-want +got):\n%s", diff)
	}

	p.ready, p.pending = true, nil
	if code, body := get("/readyz"); code != http.StatusOK || body["status"] != "ready" {
		t.Errorf("readyz = %d %v, want 200 ready", code, body)
	}
}

func TestNewPanicsOnBadPrefix(t *testing.T) {
	for _, prefix := range []string{"", "api", "/api/v1"} {
		t.Run(prefix, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("New(%q) did not panic", prefix)
				}
			}()
			module.New(prefix)
		})
	}
}

// Package module mounts prefix-scoped HTTP modules, each with its own route
// table and middleware stack, behind a single Router.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/JaimeStill/snare/pkg/middleware"
	"github.com/JaimeStill/snare/pkg/routes"
)

// Module is an HTTP handler that strips its prefix and delegates to an inner mux
// with its own middleware stack.
type Module struct {
	prefix     string
	mux        *http.ServeMux
	middleware middleware.Stack

	once    sync.Once
	handler http.Handler
}

// New creates a Module with the given single-level prefix (e.g. "/api").
// Panics if the prefix is empty, missing a leading slash, or multi-level.
func New(prefix string) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix: prefix,
		mux:    http.NewServeMux(),
	}
}

// Register adds route groups to the module's mux. Patterns are relative to the prefix.
func (m *Module) Register(groups ...routes.Group) {
	routes.Register(m.mux, groups...)
}

// Handler returns the inner mux wrapped with the module's middleware stack.
func (m *Module) Handler() http.Handler {
	return m.middleware.Apply(m.mux)
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Serve strips the module prefix from the request path and dispatches to the
// inner mux. The middleware chain is built on the first request.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.once.Do(func() { m.handler = m.Handler() })
	path := extractPath(req.URL.Path, m.prefix)
	m.handler.ServeHTTP(w, cloneRequest(req, path))
}

// Use adds middleware to the module's stack. Middleware registered first runs
// outermost. Middleware added after the first served request is ignored.
func (m *Module) Use(mw ...middleware.Func) {
	m.middleware.Use(mw...)
}

func cloneRequest(req *http.Request, path string) *http.Request {
	request := new(http.Request)
	*request = *req
	request.URL = new(url.URL)
	*request.URL = *req.URL
	request.URL.Path = path
	request.URL.RawPath = ""
	return request
}

func extractPath(fullPath, prefix string) string {
	path := fullPath[len(prefix):]
	if path == "" {
		return "/"
	}
	return path
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("module prefix cannot be empty")
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	}
	if strings.Count(prefix, "/") != 1 {
		return fmt.Errorf("module prefix must be single-level sub-path: %s", prefix)
	}
	return nil
}

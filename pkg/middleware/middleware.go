// Package middleware holds the handler wrappers mounted on snare modules.
package middleware

import (
	"net/http"
	"slices"
)

// Func wraps an http.Handler with additional behavior.
type Func func(http.Handler) http.Handler

// Stack is an ordered list of middleware. The zero value is ready to use.
type Stack []Func

// Use appends middleware to the stack. Middleware added first runs outermost.
func (s *Stack) Use(mw ...Func) {
	*s = append(*s, mw...)
}

// Apply wraps handler with every middleware in the stack.
func (s Stack) Apply(handler http.Handler) http.Handler {
	for _, mw := range slices.Backward(s) {
		handler = mw(handler)
	}
	return handler
}

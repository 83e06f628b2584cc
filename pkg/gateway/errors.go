package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnknownProvider = errors.New("unknown gateway provider")
	ErrEmptyCompletion = errors.New("empty completion")
)

// Kind classifies a gateway failure.
type Kind string

const (
	KindTimeout   Kind = "TIMEOUT"
	KindAuth      Kind = "AUTH"
	KindRateLimit Kind = "RATE_LIMIT"
	KindUnknown   Kind = "UNKNOWN"
)

// Error wraps a provider failure with its classification.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies any error returned through a Gateway.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

// kindForStatus maps an HTTP status from a completion API.
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	}
	return KindUnknown
}

func providerOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Provider
	}
	return ""
}

func wrap(provider string, err error) error {
	var ge *Error
	if errors.As(err, &ge) {
		return err
	}

	kind := KindUnknown
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Provider: provider, Err: err}
}

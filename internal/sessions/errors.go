package sessions

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/snare/internal/pipeline"
	"github.com/JaimeStill/snare/pkg/repository"
	"github.com/JaimeStill/snare/pkg/storage"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrDuplicate      = errors.New("session already exists")
	ErrEmptyMessage   = errors.New("message must not be empty")
	ErrInvalidRequest = errors.New("invalid request")
	ErrSessionBusy    = errors.New("session is processing another request")
	ErrExportDisabled = errors.New("transcript export is not configured")
)

// MapHTTPStatus maps session domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrSessionBusy), errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrExportDisabled):
		return http.StatusServiceUnavailable
	}
	return pipeline.MapHTTPStatus(err)
}

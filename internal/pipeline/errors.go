package pipeline

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/snare/internal/casefile"
)

// ErrInvalidTransition is matched by every *TransitionError.
var ErrInvalidTransition = errors.New("invalid transition")

// TransitionError reports an operation invoked from a stage that does not
// permit it, or on a terminated case file.
type TransitionError struct {
	Operation  Operation
	Stage      casefile.Stage
	Terminated bool
}

func (e *TransitionError) Error() string {
	if e.Terminated {
		return fmt.Sprintf("%s: %s on terminated case file (stage %s)", ErrInvalidTransition, e.Operation, e.Stage)
	}
	return fmt.Sprintf("%s: %s from %s", ErrInvalidTransition, e.Operation, e.Stage)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// MapHTTPStatus maps pipeline errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidTransition) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

package sessions

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/snare/internal/casefile"
	"github.com/JaimeStill/snare/pkg/lifecycle"
	"github.com/JaimeStill/snare/pkg/pagination"
)

// System defines the public contract for session operations.
type System interface {
	Handler(maxBodySize int64) *Handler

	// Start registers the idle-session janitor with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error

	// Open creates a session for an opening message and drives it to the
	// first reply, or to termination when it cannot be classified.
	Open(ctx context.Context, message string) (*Exchange, error)

	// Reply adjudicates a user reply and routes the session. Returns
	// ErrSessionBusy while another request holds the same session.
	Reply(ctx context.Context, id uuid.UUID, message string) (*Exchange, error)

	Find(ctx context.Context, id uuid.UUID) (*casefile.CaseFile, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Summary], error)

	Delete(ctx context.Context, id uuid.UUID) error

	// Export writes the session transcript to blob storage.
	Export(ctx context.Context, id uuid.UUID) (*ExportResult, error)

	// Transcript streams a previously exported transcript. The caller must
	// close the reader.
	Transcript(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)

	// Prune removes sessions idle longer than the configured timeout.
	Prune(ctx context.Context) (int, error)
}

// ExportResult reports where a transcript was written.
type ExportResult struct {
	SessionID uuid.UUID `json:"session_id"`
	Key       string    `json:"key"`
	Size      string    `json:"size"`
}

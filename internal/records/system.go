package records

import (
	"context"
	"time"

	"github.com/lowfodlabs/fodsync/pkg/pagination"
)

// System defines the public contract for record domain operations.
// The sync orchestrator consumes the narrow store subset; the HTTP handler
// uses the query operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Record], error)

	Find(ctx context.Context, id string) (*Record, error)
	Ingest(ctx context.Context, cmds []IngestCommand) (*IngestResult, error)
	Delete(ctx context.Context, id string) error

	// Store operations used by the sync engine.
	Unsubmitted(ctx context.Context) ([]Record, error)
	SubmittedUnprocessed(ctx context.Context) ([]Record, error)
	ByIDs(ctx context.Context, ids []string) ([]Record, error)
	MarkSubmitted(ctx context.Context, ids []string, at time.Time) error
	MarkPending(ctx context.Context, ids []string) error
	ApplyResults(ctx context.Context, updates []ResultUpdate) error
	ResetSubmitted(ctx context.Context, ids []string) error
}

package sync

import (
	"context"
	"errors"
	"time"

	"github.com/lowfodlabs/fodsync/internal/records"
)

// ErrStoreUnreachable indicates the record store could not be reached. Cycle
// guards are still released when it occurs, so the next tick retries.
var ErrStoreUnreachable = errors.New("record store unreachable")

// RecordStore is the slice of record persistence the orchestrator depends on.
// records.System satisfies it.
type RecordStore interface {
	Unsubmitted(ctx context.Context) ([]records.Record, error)
	SubmittedUnprocessed(ctx context.Context) ([]records.Record, error)
	ByIDs(ctx context.Context, ids []string) ([]records.Record, error)
	MarkSubmitted(ctx context.Context, ids []string, at time.Time) error
	MarkPending(ctx context.Context, ids []string) error
	ApplyResults(ctx context.Context, updates []records.ResultUpdate) error
	ResetSubmitted(ctx context.Context, ids []string) error
}

package records

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lowfodlabs/fodsync/pkg/pagination"
	"github.com/lowfodlabs/fodsync/pkg/query"
	"github.com/lowfodlabs/fodsync/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a record repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "records"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Category")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	recs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	result := pagination.NewPageResult(recs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id string) (*Record, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rec, err := repository.QueryOne(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rec, nil
}

// Ingest upserts scraped products. New products are created UNKNOWN and
// unsubmitted; already-known products keep their classification state and
// only have name and category refreshed.
func (r *repo) Ingest(ctx context.Context, cmds []IngestCommand) (*IngestResult, error) {
	ids := make([]string, 0, len(cmds))
	prepared := make([]IngestCommand, 0, len(cmds))

	for _, cmd := range cmds {
		if cmd.ID == "" {
			cmd.ID = NormalizeID(cmd.Name)
		}
		if cmd.ID == "" || cmd.Name == "" {
			return nil, ErrNoName
		}
		ids = append(ids, cmd.ID)
		prepared = append(prepared, cmd)
	}

	if len(prepared) == 0 {
		return &IngestResult{IDs: []string{}}, nil
	}

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*IngestResult, error) {
		existing, err := repository.QueryMany(
			ctx, tx,
			"SELECT id FROM records WHERE id = ANY($1)",
			[]any{ids},
			func(s repository.Scanner) (string, error) {
				var id string
				err := s.Scan(&id)
				return id, err
			},
		)
		if err != nil {
			return nil, fmt.Errorf("query existing ids: %w", err)
		}

		known := make(map[string]bool, len(existing))
		for _, id := range existing {
			known[id] = true
		}

		res := &IngestResult{IDs: ids}
		q := `
			INSERT INTO records(id, name, category, status)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, category = EXCLUDED.category, updated_at = now()`

		for _, cmd := range prepared {
			if _, err := tx.ExecContext(ctx, q, cmd.ID, cmd.Name, cmd.Category, StatusUnknown); err != nil {
				return nil, fmt.Errorf("upsert record %s: %w", cmd.ID, err)
			}
			if known[cmd.ID] {
				res.Updated++
			} else {
				res.Inserted++
				known[cmd.ID] = true
			}
		}

		return res, nil
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("records ingested", "inserted", result.Inserted, "updated", result.Updated)
	return result, nil
}

func (r *repo) Delete(ctx context.Context, id string) error {
	err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM records WHERE id = $1", id)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("record deleted", "id", id)
	return nil
}

func (r *repo) Unsubmitted(ctx context.Context) ([]Record, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereNull("SubmittedAt").
		WhereIn("Status", []any{string(StatusUnknown), string(StatusPending)}).
		Build()

	recs, err := repository.QueryMany(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query unsubmitted records: %w", err)
	}
	return recs, nil
}

// SubmittedUnprocessed returns stamped records still awaiting a result.
// UNKNOWN is included alongside PENDING so records whose submission failed
// after the write-ahead stamp stay reachable by poll reconciliation.
func (r *repo) SubmittedUnprocessed(ctx context.Context) ([]Record, error) {
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereNotNull("SubmittedAt").
		WhereNull("ProcessedAt").
		WhereIn("Status", []any{string(StatusUnknown), string(StatusPending)}).
		Build()

	recs, err := repository.QueryMany(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query submitted unprocessed records: %w", err)
	}
	return recs, nil
}

func (r *repo) ByIDs(ctx context.Context, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return []Record{}, nil
	}

	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ANY($1)",
		projection.Columns(),
		projection.From(),
		projection.Column("ID"),
	)

	recs, err := repository.QueryMany(ctx, r.db, q, []any{ids}, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query records by ids: %w", err)
	}
	return recs, nil
}

// MarkSubmitted stamps submitted_at on the given records. The orchestrator
// persists this stamp before the network submission so that an interrupted
// cycle surfaces as a resubmission candidate rather than a lost record.
func (r *repo) MarkSubmitted(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	n, err := repository.ExecCount(
		ctx, r.db,
		"UPDATE records SET submitted_at = $2, updated_at = now() WHERE id = ANY($1)",
		ids, at,
	)
	if err != nil {
		return fmt.Errorf("mark records submitted: %w", err)
	}

	r.logger.Debug("records marked submitted", "count", n)
	return nil
}

func (r *repo) MarkPending(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	n, err := repository.ExecCount(
		ctx, r.db,
		"UPDATE records SET status = $2, updated_at = now() WHERE id = ANY($1)",
		ids, StatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark records pending: %w", err)
	}

	r.logger.Debug("records marked pending", "count", n)
	return nil
}

// ApplyResults writes terminal classification results in a single transaction.
// Explanation and is_food are kept when the service omitted them.
func (r *repo) ApplyResults(ctx context.Context, updates []ResultUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	q := `
		UPDATE records
		SET status = $2,
			processed_at = $3,
			explanation = COALESCE($4, explanation),
			is_food = COALESCE($5, is_food),
			updated_at = now()
		WHERE id = $1`

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		for _, u := range updates {
			if !u.Status.Terminal() {
				return struct{}{}, fmt.Errorf("non-terminal status %q for record %s", u.Status, u.ID)
			}
			if _, err := tx.ExecContext(ctx, q, u.ID, u.Status, u.ProcessedAt, u.Explanation, u.IsFood); err != nil {
				return struct{}{}, fmt.Errorf("apply result for record %s: %w", u.ID, err)
			}
		}
		return struct{}{}, nil
	})

	if err != nil {
		return err
	}

	r.logger.Info("classification results applied", "count", len(updates))
	return nil
}

// ResetSubmitted clears submitted_at for records the service reported as
// missing, leaving status untouched so they become submit candidates again.
func (r *repo) ResetSubmitted(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	n, err := repository.ExecCount(
		ctx, r.db,
		"UPDATE records SET submitted_at = NULL, updated_at = now() WHERE id = ANY($1)",
		ids,
	)
	if err != nil {
		return fmt.Errorf("reset submitted records: %w", err)
	}

	r.logger.Info("records reset for resubmission", "count", n)
	return nil
}

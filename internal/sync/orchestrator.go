package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lowfodlabs/fodsync/internal/classifier"
	"github.com/lowfodlabs/fodsync/internal/records"
	"github.com/lowfodlabs/fodsync/pkg/lifecycle"
)

// Classifier is the slice of the classification client the orchestrator
// depends on. classifier.Client satisfies it.
type Classifier interface {
	IsConfigured() bool
	SubmitRecords(ctx context.Context, recs []records.Record) (*classifier.SubmitResult, error)
	PollStatus(ctx context.Context, ids []string) (*classifier.PollResult, error)
	HealthCheck(ctx context.Context) classifier.Health
}

// Status is a point-in-time snapshot of orchestrator state.
type Status struct {
	Syncing    bool       `json:"is_syncing"`
	Polling    bool       `json:"is_polling"`
	LastSyncAt *time.Time `json:"last_sync_at"`
	NextSyncAt *time.Time `json:"next_sync_at"`
}

// Orchestrator drives the submit and poll cycles against the classifier.
// At most one submit cycle and one poll cycle run at any time; overlapping
// triggers are dropped, never queued.
type Orchestrator struct {
	store  RecordStore
	client Classifier
	cfg    *Config
	logger *slog.Logger

	mu         sync.Mutex
	started    bool
	syncing    bool
	polling    bool
	lastSyncAt time.Time
	nextSyncAt time.Time
}

func NewOrchestrator(store RecordStore, client Classifier, cfg *Config, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:  store,
		client: client,
		cfg:    cfg,
		logger: logger.With("system", "sync"),
	}
}

// Start launches the submit and poll loops on the lifecycle context. Calling
// Start more than once is a no-op, as is starting while sync is disabled or
// the classifier endpoint is unset.
func (o *Orchestrator) Start(lc *lifecycle.Coordinator) {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return
	}
	if !o.cfg.Enabled {
		o.mu.Unlock()
		o.logger.Info("sync disabled, loops not started")
		return
	}
	if !o.client.IsConfigured() {
		o.mu.Unlock()
		o.logger.Info("classifier not configured, loops not started")
		return
	}
	o.started = true
	o.nextSyncAt = time.Now().Add(o.cfg.SubmitIntervalDuration())
	o.mu.Unlock()

	ctx := lc.Context()
	go o.runLoop(ctx, "submit", o.cfg.SubmitIntervalDuration(), o.RunSubmitCycle)
	go o.runLoop(ctx, "poll", o.cfg.PollIntervalDuration(), o.RunPollCycle)

	o.logger.Info("sync loops started",
		"submitInterval", o.cfg.SubmitInterval,
		"pollInterval", o.cfg.PollInterval,
	)
}

func (o *Orchestrator) runLoop(ctx context.Context, cycle string, interval time.Duration, tick func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Debug("sync loop stopped", "cycle", cycle)
			return
		case <-ticker.C:
			if cycle == "submit" {
				o.setNextSyncAt(time.Now().Add(interval))
			}

			health := o.client.HealthCheck(ctx)
			if !health.Healthy {
				o.logger.Warn("skipping cycle, classifier unhealthy",
					"cycle", cycle,
					"message", health.Message,
				)
				continue
			}

			if err := tick(ctx); err != nil {
				o.logger.Error("cycle failed", "cycle", cycle, "error", err)
			}
		}
	}
}

// RunSubmitCycle submits every eligible record to the classifier. It returns
// nil without work when another submit cycle holds the guard.
func (o *Orchestrator) RunSubmitCycle(ctx context.Context) error {
	if !o.client.IsConfigured() {
		return nil
	}
	if !o.acquireSync() {
		o.logger.Debug("submit cycle already running, skipping")
		return nil
	}
	defer o.releaseSync()

	recs, err := o.store.Unsubmitted(ctx)
	if err != nil {
		return fmt.Errorf("load unsubmitted records: %w", err)
	}

	return o.submit(ctx, recs)
}

// SubmitByIDs submits the given records, skipping any that are not eligible.
func (o *Orchestrator) SubmitByIDs(ctx context.Context, ids []string) error {
	if !o.client.IsConfigured() {
		return classifier.ErrNotConfigured
	}
	if !o.acquireSync() {
		o.logger.Debug("submit cycle already running, skipping")
		return nil
	}
	defer o.releaseSync()

	recs, err := o.store.ByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	eligible := make([]records.Record, 0, len(recs))
	for _, r := range recs {
		if r.Submittable() {
			eligible = append(eligible, r)
		}
	}

	return o.submit(ctx, eligible)
}

// submit runs one submission pass. The sync guard must be held by the caller.
func (o *Orchestrator) submit(ctx context.Context, recs []records.Record) error {
	if len(recs) == 0 {
		o.logger.Debug("no records to submit")
		return nil
	}

	runID := uuid.NewString()
	ids := recordIDs(recs)

	o.logger.Info("submit cycle starting", "run", runID, "records", len(recs))

	// Stamp before the network call so a crash mid-submit leaves the batch
	// parked rather than resubmitted. Poll reconciliation reopens stamped
	// records the classifier never received.
	if err := o.store.MarkSubmitted(ctx, ids, time.Now().UTC()); err != nil {
		return fmt.Errorf("stamp submitted: %w", err)
	}

	result, err := o.client.SubmitRecords(ctx, recs)
	if err != nil {
		return fmt.Errorf("submit records: %w", err)
	}

	if err := o.store.MarkPending(ctx, ids); err != nil {
		return fmt.Errorf("mark pending: %w", err)
	}

	o.setLastSyncAt(time.Now())
	o.logger.Info("submit cycle complete",
		"run", runID,
		"submitted", result.SubmittedCount,
	)

	// Give the classifier a moment, then pick up anything it finished fast.
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(o.cfg.GraceDelayDuration()):
	}

	if err := o.PollByIDs(ctx, ids); err != nil {
		o.logger.Warn("post-submit poll failed", "run", runID, "error", err)
	}

	return nil
}

// RunPollCycle polls the classifier for every submitted record still awaiting
// a result. It returns nil without work when another poll holds the guard.
func (o *Orchestrator) RunPollCycle(ctx context.Context) error {
	if !o.client.IsConfigured() {
		return nil
	}
	if !o.acquirePoll() {
		o.logger.Debug("poll cycle already running, skipping")
		return nil
	}
	defer o.releasePoll()

	recs, err := o.store.SubmittedUnprocessed(ctx)
	if err != nil {
		return fmt.Errorf("load submitted records: %w", err)
	}

	return o.poll(ctx, recordIDs(recs))
}

// PollByIDs polls for the given records, skipping any that are not awaiting
// a result.
func (o *Orchestrator) PollByIDs(ctx context.Context, ids []string) error {
	if !o.client.IsConfigured() {
		return classifier.ErrNotConfigured
	}
	if !o.acquirePoll() {
		o.logger.Debug("poll cycle already running, skipping")
		return nil
	}
	defer o.releasePoll()

	recs, err := o.store.ByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	eligible := make([]string, 0, len(recs))
	for _, r := range recs {
		if r.AwaitingResult() {
			eligible = append(eligible, r.ID)
		}
	}

	return o.poll(ctx, eligible)
}

// poll runs one poll pass. The poll guard must be held by the caller.
func (o *Orchestrator) poll(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		o.logger.Debug("no records to poll")
		return nil
	}

	runID := uuid.NewString()
	o.logger.Info("poll cycle starting", "run", runID, "records", len(ids))

	result, err := o.client.PollStatus(ctx, ids)
	if err != nil {
		return fmt.Errorf("poll status: %w", err)
	}

	applied := make(map[string]bool, len(result.Results))
	updates := make([]records.ResultUpdate, 0, len(result.Results))
	for _, r := range result.Results {
		if !r.Status.Terminal() {
			continue
		}
		processedAt := time.Now().UTC()
		if r.ProcessedAt != nil {
			processedAt = *r.ProcessedAt
		}
		updates = append(updates, records.ResultUpdate{
			ID:          r.ID,
			Status:      r.Status,
			Explanation: r.Explanation,
			IsFood:      r.IsFood,
			ProcessedAt: processedAt,
		})
		applied[r.ID] = true
	}

	if len(updates) > 0 {
		if err := o.store.ApplyResults(ctx, updates); err != nil {
			return fmt.Errorf("apply results: %w", err)
		}
	}

	// Records the classifier has no knowledge of get their stamps cleared
	// as a separate step, never mixed into the result updates above.
	missing := make([]string, 0, len(result.MissingIDs))
	for _, id := range result.MissingIDs {
		if !applied[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		if err := o.store.ResetSubmitted(ctx, missing); err != nil {
			return fmt.Errorf("reset missing records: %w", err)
		}
	}

	o.logger.Info("poll cycle complete",
		"run", runID,
		"processed", len(updates),
		"pending", result.Found-len(updates),
		"reset", len(missing),
	)

	return nil
}

// Status reports whether cycles are in flight and the sync schedule.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := Status{
		Syncing: o.syncing,
		Polling: o.polling,
	}
	if !o.lastSyncAt.IsZero() {
		t := o.lastSyncAt
		status.LastSyncAt = &t
	}
	if o.started && !o.nextSyncAt.IsZero() {
		t := o.nextSyncAt
		status.NextSyncAt = &t
	}
	return status
}

func (o *Orchestrator) acquireSync() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.syncing {
		return false
	}
	o.syncing = true
	return true
}

func (o *Orchestrator) releaseSync() {
	o.mu.Lock()
	o.syncing = false
	o.mu.Unlock()
}

func (o *Orchestrator) acquirePoll() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.polling {
		return false
	}
	o.polling = true
	return true
}

func (o *Orchestrator) releasePoll() {
	o.mu.Lock()
	o.polling = false
	o.mu.Unlock()
}

func (o *Orchestrator) setLastSyncAt(at time.Time) {
	o.mu.Lock()
	o.lastSyncAt = at
	o.mu.Unlock()
}

func (o *Orchestrator) setNextSyncAt(at time.Time) {
	o.mu.Lock()
	o.nextSyncAt = at
	o.mu.Unlock()
}

func recordIDs(recs []records.Record) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/guideops/activity-comb/app/activity"
	"github.com/guideops/activity-comb/app/database"
	"github.com/guideops/activity-comb/app/obs"
	"github.com/guideops/activity-comb/app/store"
)

// ErrPassInFlight is returned when a reconciliation trigger arrives while
// another pass holds the store. Concurrent passes over the same file are not
// safe; callers surface this as a conflict instead of queueing silently.
var ErrPassInFlight = errors.New("a reconciliation pass is already in flight")

// Runner executes reconciliation passes over the canonical store. It owns the
// single-writer discipline: load and commit happen under one exclusive
// acquisition, and a second trigger is rejected while a pass is running.
type Runner struct {
	store      *store.JSONStore
	reconciler *activity.Reconciler
	runs       *database.RunRepository // nil disables the audit trail

	mu sync.Mutex
}

func NewRunner(jsonStore *store.JSONStore, reconciler *activity.Reconciler, runs *database.RunRepository) *Runner {
	return &Runner{
		store:      jsonStore,
		reconciler: reconciler,
		runs:       runs,
	}
}

// Reconcile runs one full pass: load the store, merge any extra records
// (e.g. a spreadsheet import), reconcile in memory, commit atomically, and
// record the run. Returns ErrPassInFlight when another pass is running.
func (r *Runner) Reconcile(ctx context.Context, trigger string, extra []activity.Record) (*activity.Report, error) {
	if !r.mu.TryLock() {
		obs.PassesRejected.Inc()
		return nil, ErrPassInFlight
	}
	defer r.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	obs.PassesStarted.WithLabelValues(trigger).Inc()
	runID := uuid.NewString()

	records, err := r.store.Load()
	if err != nil {
		r.recordFailure(runID, trigger, err)
		return nil, err
	}
	records = append(records, extra...)

	outcome := r.reconciler.Run(records)

	if err := r.store.Commit(outcome.Records); err != nil {
		r.recordFailure(runID, trigger, err)
		return nil, err
	}

	r.recordSuccess(runID, trigger, outcome)

	obs.PassesCompleted.Inc()
	obs.DuplicatesRemoved.Add(float64(outcome.Report.DuplicatesRemoved))
	obs.IdsRepaired.Add(float64(outcome.Report.IdsRepaired))
	obs.DescriptionsChanged.Add(float64(outcome.Report.DescriptionsChanged))

	slog.Info("Reconciliation pass completed",
		"run_id", runID,
		"trigger", trigger,
		"records", len(outcome.Records),
		"duplicates_removed", outcome.Report.DuplicatesRemoved,
		"ids_repaired", outcome.Report.IdsRepaired,
		"descriptions_changed", outcome.Report.DescriptionsChanged,
		"warnings", len(outcome.Report.Warnings),
		"duration", outcome.Duration)

	report := outcome.Report
	return &report, nil
}

// Snapshot returns the current canonical record set.
func (r *Runner) Snapshot() ([]activity.Record, error) {
	return r.store.Load()
}

func (r *Runner) recordSuccess(runID, trigger string, outcome activity.Outcome) {
	if r.runs == nil {
		return
	}
	run := database.Run{
		ID:                  runID,
		TriggeredBy:         trigger,
		Status:              database.RunStatusCompleted,
		DuplicatesRemoved:   outcome.Report.DuplicatesRemoved,
		IdsRepaired:         outcome.Report.IdsRepaired,
		DescriptionsChanged: outcome.Report.DescriptionsChanged,
		Warnings:            outcome.Report.Warnings,
		RecordCount:         len(outcome.Records),
		DurationMs:          outcome.Duration.Milliseconds(),
	}
	if err := r.runs.RecordRun(run, outcome.Eliminated); err != nil {
		slog.Warn("Failed to record run in audit trail", "run_id", runID, "error", err)
	}
}

func (r *Runner) recordFailure(runID, trigger string, passErr error) {
	obs.PassesFailed.Inc()
	if r.runs == nil {
		return
	}
	run := database.Run{
		ID:          runID,
		TriggeredBy: trigger,
		Status:      database.RunStatusFailed,
		Error:       fmt.Sprintf("%v", passErr),
	}
	if err := r.runs.RecordRun(run, nil); err != nil {
		slog.Warn("Failed to record failed run in audit trail", "run_id", runID, "error", err)
	}
}

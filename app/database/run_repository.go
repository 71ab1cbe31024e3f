package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/guideops/activity-comb/app/activity"
)

// RunRepository handles database operations for the reconciliation audit
// trail.
type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// RecordRun stores a completed (or failed) pass together with its eliminated
// records, in one transaction.
func (r *RunRepository) RecordRun(run Run, eliminated []activity.Eliminated) error {
	warnings, err := json.Marshal(run.Warnings)
	if err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = tx.Exec(`
		INSERT INTO runs (
			id, triggered_by, status, duplicates_removed, ids_repaired,
			descriptions_changed, warnings, record_count, duration_ms, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.TriggeredBy, run.Status, run.DuplicatesRemoved, run.IdsRepaired,
		run.DescriptionsChanged, string(warnings), run.RecordCount, run.DurationMs, run.Error,
		createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, e := range eliminated {
		snapshot, err := json.Marshal(e.Record)
		if err != nil {
			return fmt.Errorf("failed to encode eliminated record: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO eliminated_records (run_id, survivor_id, reason, record_json)
			VALUES (?, ?, ?, ?)
		`, run.ID, e.SurvivorID, e.Reason, string(snapshot))
		if err != nil {
			return fmt.Errorf("failed to insert eliminated record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepository) ListRuns(limit int) ([]Run, error) {
	rows, err := r.db.Query(`
		SELECT id, triggered_by, status, duplicates_removed, ids_repaired,
		       descriptions_changed, warnings, record_count, duration_ms, error, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id, or nil when absent.
func (r *RunRepository) GetRun(id string) (*Run, error) {
	row := r.db.QueryRow(`
		SELECT id, triggered_by, status, duplicates_removed, ids_repaired,
		       descriptions_changed, warnings, record_count, duration_ms, error, created_at
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetEliminated returns the records removed during a run.
func (r *RunRepository) GetEliminated(runID string) ([]EliminatedRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, run_id, survivor_id, reason, record_json, created_at
		FROM eliminated_records
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query eliminated records: %w", err)
	}
	defer rows.Close()

	var out []EliminatedRecord
	for rows.Next() {
		var e EliminatedRecord
		if err := rows.Scan(&e.ID, &e.RunID, &e.SurvivorID, &e.Reason, &e.RecordJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan eliminated record: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetRunCount returns the total number of recorded runs.
func (r *RunRepository) GetRunCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var warnings string
	var createdAt time.Time
	err := row.Scan(&run.ID, &run.TriggeredBy, &run.Status, &run.DuplicatesRemoved,
		&run.IdsRepaired, &run.DescriptionsChanged, &warnings, &run.RecordCount,
		&run.DurationMs, &run.Error, &createdAt)
	if err != nil {
		return Run{}, err
	}
	run.CreatedAt = createdAt
	if warnings != "" {
		if err := json.Unmarshal([]byte(warnings), &run.Warnings); err != nil {
			return Run{}, fmt.Errorf("failed to decode warnings: %w", err)
		}
	}
	return run, nil
}

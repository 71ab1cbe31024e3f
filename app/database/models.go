package database

import (
	"time"
)

// Run is one reconciliation pass as recorded in the audit trail.
type Run struct {
	ID                  string    `json:"id"`
	TriggeredBy         string    `json:"triggeredBy"` // api, scheduler, watcher, startup
	Status              string    `json:"status"`      // completed, failed
	DuplicatesRemoved   int       `json:"duplicatesRemoved"`
	IdsRepaired         int       `json:"idsRepaired"`
	DescriptionsChanged int       `json:"descriptionsChanged"`
	Warnings            []string  `json:"warnings"`
	RecordCount         int       `json:"recordCount"`
	DurationMs          int64     `json:"durationMs"`
	Error               string    `json:"error,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// EliminatedRecord is a duplicate-resolution loser preserved for audit.
type EliminatedRecord struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"runId"`
	SurvivorID string    `json:"survivorId"`
	Reason     string    `json:"reason"`
	RecordJSON string    `json:"record"`
	CreatedAt  time.Time `json:"createdAt"`
}

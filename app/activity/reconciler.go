package activity

import (
	"log/slog"
	"time"
)

// Reconciler drives one reconciliation pass over an in-memory record
// snapshot: normalize derived fields, resolve duplicates, clean description
// text, and produce the canonical set plus a change report. File I/O stays at
// the caller's boundary; the pass itself is a pure function of its input.
type Reconciler struct {
	policy     *Policy
	classifier *TimeClassifier
	resolver   *DuplicateResolver
	cleaner    *TextDedupEngine
}

func NewReconciler(policy *Policy) *Reconciler {
	return &Reconciler{
		policy:     policy,
		classifier: NewTimeClassifier(policy),
		resolver:   NewDuplicateResolver(policy),
		cleaner:    NewTextDedupEngine(policy),
	}
}

func (r *Reconciler) Run(records []Record) Outcome {
	start := time.Now()

	// Normalize: flexibleTime is cached derived data, never hand-authored
	// truth, so it is overwritten unconditionally. Weekday duplicates are an
	// invariant violation and repaired here.
	normalized := make([]Record, 0, len(records))
	for _, record := range records {
		next := record.Clone()
		next.FlexibleTime = YesNo(r.classifier.Run(next.Time).IsFlexible)
		next.Weekdays = r.policy.CanonicalWeekdays(next.Weekdays)
		if next.Status == "" {
			next.Status = StatusDraft
		}
		normalized = append(normalized, next)
	}

	resolution := r.resolver.Run(normalized)

	descriptionsChanged := 0
	for i := range resolution.Survivors {
		cleaned := r.cleaner.Run(resolution.Survivors[i].Description)
		if cleaned != resolution.Survivors[i].Description {
			descriptionsChanged++
			resolution.Survivors[i].Description = cleaned
		}
	}

	outcome := Outcome{
		Records:    resolution.Survivors,
		Eliminated: resolution.Eliminated,
		IDRepairs:  resolution.IDRepairs,
		Report: Report{
			DuplicatesRemoved:   len(resolution.Eliminated),
			IdsRepaired:         len(resolution.IDRepairs),
			DescriptionsChanged: descriptionsChanged,
			Warnings:            resolution.Warnings,
		},
		Duration: time.Since(start),
	}

	slog.Debug("Reconciliation pass computed",
		"input", len(records),
		"survivors", len(outcome.Records),
		"duplicates_removed", outcome.Report.DuplicatesRemoved,
		"ids_repaired", outcome.Report.IdsRepaired,
		"descriptions_changed", outcome.Report.DescriptionsChanged,
		"warnings", len(outcome.Report.Warnings))

	return outcome
}

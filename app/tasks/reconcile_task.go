package tasks

import (
	"context"
	"errors"
	"log/slog"
)

type ReconcileTask struct {
	Task
	runner  *Runner
	trigger string
}

func NewReconcileTask(runner *Runner, trigger string) *ReconcileTask {
	return &ReconcileTask{
		Task:    NewTask(TaskTypeReconcile),
		runner:  runner,
		trigger: trigger,
	}
}

func (t *ReconcileTask) Execute(ctx context.Context) error {
	report, err := t.runner.Reconcile(ctx, t.trigger, nil)
	if err != nil {
		// A concurrent pass already covers this trigger's work.
		if errors.Is(err, ErrPassInFlight) {
			slog.Debug("Scheduled pass skipped, another pass in flight", "trigger", t.trigger)
			return nil
		}
		return err
	}

	slog.Info("Task completed",
		"type", "Reconcile",
		"trigger", t.trigger,
		"duration", t.GetDuration(),
		"duplicates_removed", report.DuplicatesRemoved,
		"ids_repaired", report.IdsRepaired,
		"descriptions_changed", report.DescriptionsChanged)

	return nil
}

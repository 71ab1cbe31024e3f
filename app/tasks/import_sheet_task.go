package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/guideops/activity-comb/app/obs"
	"github.com/guideops/activity-comb/app/store"
)

// ImportSheetTask reads a spreadsheet and merges its rows into the canonical
// store through a full reconciliation pass. The processed workbook is renamed
// aside so a watcher never picks it up twice.
type ImportSheetTask struct {
	Task
	runner *Runner
	sheet  *store.SheetAdapter
	path   string
}

func NewImportSheetTask(runner *Runner, sheet *store.SheetAdapter, path string) *ImportSheetTask {
	return &ImportSheetTask{
		Task:   NewTask(TaskTypeImportSheet),
		runner: runner,
		sheet:  sheet,
		path:   path,
	}
}

func (t *ImportSheetTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	records, err := t.sheet.Import(t.path)
	if err != nil {
		return fmt.Errorf("failed to import workbook: %w", err)
	}

	report, err := t.runner.Reconcile(ctx, "import", records)
	if err != nil {
		return err
	}

	obs.SheetsImported.Inc()

	if err := os.Rename(t.path, t.path+".imported"); err != nil {
		slog.Warn("Failed to archive imported workbook", "path", t.path, "error", err)
	}

	slog.Info("Task completed",
		"type", "ImportSheet",
		"path", t.path,
		"duration", t.GetDuration(),
		"rows", len(records),
		"duplicates_removed", report.DuplicatesRemoved,
		"ids_repaired", report.IdsRepaired)

	return nil
}

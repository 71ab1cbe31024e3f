package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/guideops/activity-comb/app/store"
)

// ExportSheetTask re-renders the canonical record set into the spreadsheet
// mirror for human editing.
type ExportSheetTask struct {
	Task
	runner *Runner
	sheet  *store.SheetAdapter
	path   string
}

func NewExportSheetTask(runner *Runner, sheet *store.SheetAdapter, path string) *ExportSheetTask {
	return &ExportSheetTask{
		Task:   NewTask(TaskTypeExportSheet),
		runner: runner,
		sheet:  sheet,
		path:   path,
	}
}

func (t *ExportSheetTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	records, err := t.runner.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}

	if err := t.sheet.Export(t.path, records); err != nil {
		return fmt.Errorf("failed to export workbook: %w", err)
	}

	slog.Info("Task completed",
		"type", "ExportSheet",
		"path", t.path,
		"duration", t.GetDuration(),
		"records", len(records))

	return nil
}

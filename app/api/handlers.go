package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guideops/activity-comb/app/activity"
	"github.com/guideops/activity-comb/app/database"
	"github.com/guideops/activity-comb/app/store"
	"github.com/guideops/activity-comb/app/tasks"
)

type Handler struct {
	runner    *tasks.Runner
	scheduler tasks.TaskSchedulerInterface
	runs      *database.RunRepository
	sheet     *store.SheetAdapter
	sheetPath string
}

func NewHandler(runner *tasks.Runner, scheduler tasks.TaskSchedulerInterface,
	runs *database.RunRepository, sheet *store.SheetAdapter, sheetPath string) *Handler {
	return &Handler{
		runner:    runner,
		scheduler: scheduler,
		runs:      runs,
		sheet:     sheet,
		sheetPath: sheetPath,
	}
}

func (h *Handler) GetActivities(c *gin.Context) {
	records, err := h.runner.Snapshot()
	if err != nil {
		slog.Error("Failed to load store", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	filtered := filterRecords(records, recordFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Weekday:  c.Query("weekday"),
		Flexible: c.Query("flexible"),
	})

	c.JSON(http.StatusOK, gin.H{
		"count":      len(filtered),
		"activities": filtered,
	})
}

func (h *Handler) GetActivity(c *gin.Context) {
	id := c.Param("id")

	records, err := h.runner.Snapshot()
	if err != nil {
		slog.Error("Failed to load store", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	for _, record := range records {
		if record.ActivityNumber == id {
			c.JSON(http.StatusOK, record)
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "activity not found", "id": id})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if records, err := h.runner.Snapshot(); err == nil {
		health["activities"] = len(records)
	}
	if h.runs != nil {
		if runCount, err := h.runs.GetRunCount(); err == nil {
			health["runs"] = runCount
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	records, err := h.runner.Snapshot()
	if err != nil {
		slog.Error("Failed to load store", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	byStatus := make(map[string]int)
	byCategory := make(map[string]int)
	flexible := 0
	for _, record := range records {
		byStatus[string(record.Status)]++
		byCategory[record.Category]++
		if bool(record.FlexibleTime) {
			flexible++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total":       len(records),
		"by_status":   byStatus,
		"by_category": byCategory,
		"flexible":    flexible,
	})
}

// Reconcile runs a synchronous pass over the store. A pass already in flight
// yields 409: concurrent passes over the same file are never run.
func (h *Handler) Reconcile(c *gin.Context) {
	report, err := h.runner.Reconcile(c.Request.Context(), "api", nil)
	if err != nil {
		h.renderPassError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ImportSheet accepts a multipart workbook upload, merges its rows into the
// store through a full reconciliation pass, and returns the report.
func (h *Handler) ImportSheet(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("Failed to open upload", "filename", file.Filename, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	defer src.Close()

	records, err := h.sheet.ImportReader(src)
	if err != nil {
		slog.Error("Failed to parse uploaded workbook", "filename", file.Filename, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "workbook could not be parsed"})
		return
	}

	report, err := h.runner.Reconcile(c.Request.Context(), "import", records)
	if err != nil {
		h.renderPassError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"imported": len(records),
		"report":   report,
	})
}

// ExportSheet queues a background export of the canonical set into the
// spreadsheet mirror.
func (h *Handler) ExportSheet(c *gin.Context) {
	task := tasks.NewExportSheetTask(h.runner, h.sheet, h.sheetPath)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue ExportSheetTask", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task queue is full"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "queued",
		"path":   h.sheetPath,
	})
}

func (h *Handler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "audit trail disabled"})
		return
	}

	runs, err := h.runs.ListRuns(50)
	if err != nil {
		slog.Error("Failed to list runs", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(runs), "runs": runs})
}

func (h *Handler) GetRun(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "audit trail disabled"})
		return
	}

	id := c.Param("id")
	run, err := h.runs.GetRun(id)
	if err != nil {
		slog.Error("Failed to get run", "run_id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found", "id": id})
		return
	}

	eliminated, err := h.runs.GetEliminated(id)
	if err != nil {
		slog.Error("Failed to get eliminated records", "run_id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"run": run, "eliminated": eliminated})
}

func (h *Handler) renderPassError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tasks.ErrPassInFlight):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "reconciliation in progress",
			"message": "another pass is already running against the store",
		})
	case errors.Is(err, store.ErrSourceUnreadable):
		slog.Error("Source unreadable", "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "store could not be read"})
	default:
		slog.Error("Reconciliation pass failed", "error", err)
		c.Status(http.StatusInternalServerError)
	}
}

type recordFilter struct {
	Query    string
	Category string
	Status   string
	Weekday  string
	Flexible string
}

func filterRecords(records []activity.Record, f recordFilter) []activity.Record {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]activity.Record, 0, len(records))

	for _, record := range records {
		if f.Category != "" && !strings.EqualFold(record.Category, f.Category) {
			continue
		}
		if f.Status != "" && !strings.EqualFold(string(record.Status), f.Status) {
			continue
		}
		if f.Flexible != "" && bool(record.FlexibleTime) != bool(activity.ParseYesNo(f.Flexible)) {
			continue
		}
		if f.Weekday != "" && !hasWeekday(record.Weekdays, f.Weekday) {
			continue
		}
		if query != "" && !matchesQuery(record, query) {
			continue
		}
		out = append(out, record)
	}

	return out
}

func hasWeekday(days []string, want string) bool {
	for _, day := range days {
		if strings.EqualFold(day, want) {
			return true
		}
	}
	return false
}

func matchesQuery(record activity.Record, query string) bool {
	for _, field := range []string{record.Title, record.Description, record.Location, record.Category} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

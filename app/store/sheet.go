package store

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/guideops/activity-comb/app/activity"
)

// SheetAdapter maps the spreadsheet mirror to the in-memory record array and
// back. Rows map 1:1 to records via the policy's fixed column-name map; the
// adapter does no reconciliation of its own.
type SheetAdapter struct {
	policy *activity.Policy
}

const sheetName = "Activities"

// fieldOrder fixes the column order for exports.
var fieldOrder = []string{
	"activityNumber", "title", "category", "location", "price",
	"time", "weekdays", "flexibleTime", "description", "status",
}

func NewSheetAdapter(policy *activity.Policy) *SheetAdapter {
	return &SheetAdapter{policy: policy}
}

// Import reads a workbook file into a record array.
func (a *SheetAdapter) Import(path string) ([]activity.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook %s: %v", ErrSourceUnreadable, path, err)
	}
	defer f.Close()
	return a.importFile(f)
}

// ImportReader reads an uploaded workbook into a record array.
func (a *SheetAdapter) ImportReader(r io.Reader) ([]activity.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %v", ErrSourceUnreadable, err)
	}
	defer f.Close()
	return a.importFile(f)
}

func (a *SheetAdapter) importFile(f *excelize.File) ([]activity.Record, error) {
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrSourceUnreadable)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read rows: %v", ErrSourceUnreadable, err)
	}
	if len(rows) == 0 {
		return []activity.Record{}, nil
	}

	fieldOf := a.headerFields(rows[0])
	if fieldOf["title"] < 0 {
		return nil, fmt.Errorf("%w: header row has no %q column", ErrSourceUnreadable, a.policy.ColumnMap["title"])
	}

	records := make([]activity.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := a.rowToRecord(row, fieldOf)
		if record.Title == "" && record.ActivityNumber == "" {
			continue // trailing empty rows
		}
		records = append(records, record)
	}

	slog.Debug("Workbook imported", "sheet", sheet, "records", len(records))
	return records, nil
}

// headerFields maps each known field to its column index, -1 when the column
// is absent. Header comparison is whitespace- and case-insensitive (ASCII).
func (a *SheetAdapter) headerFields(header []string) map[string]int {
	indexOf := make(map[string]int, len(header))
	for i, cell := range header {
		indexOf[normalizeHeader(cell)] = i
	}

	fieldOf := make(map[string]int, len(a.policy.ColumnMap))
	for field, column := range a.policy.ColumnMap {
		idx, ok := indexOf[normalizeHeader(column)]
		if !ok {
			idx = -1
		}
		fieldOf[field] = idx
	}
	return fieldOf
}

func (a *SheetAdapter) rowToRecord(row []string, fieldOf map[string]int) activity.Record {
	cell := func(field string) string {
		idx := fieldOf[field]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	record := activity.Record{
		ActivityNumber: cell("activityNumber"),
		Title:          cell("title"),
		Category:       cell("category"),
		Location:       cell("location"),
		Price:          cell("price"),
		Time:           cell("time"),
		FlexibleTime:   activity.ParseYesNo(cell("flexibleTime")),
		Description:    cell("description"),
		Status:         activity.Status(strings.ToLower(cell("status"))),
	}

	if days := cell("weekdays"); days != "" {
		record.Weekdays = splitWeekdays(days)
	}
	if record.Status == "" {
		record.Status = activity.StatusDraft
	}

	return record
}

// Export renders the canonical record set back into the workbook mirror.
func (a *SheetAdapter) Export(path string, records []activity.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	for col, field := range fieldOrder {
		cellName, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cellName, a.policy.ColumnMap[field]); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for rowIdx, record := range records {
		values := []string{
			record.ActivityNumber,
			record.Title,
			record.Category,
			record.Location,
			record.Price,
			record.Time,
			strings.Join(record.Weekdays, ", "),
			record.FlexibleTime.String(),
			record.Description,
			string(record.Status),
		}
		for col, value := range values {
			cellName, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cellName, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", rowIdx+2, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: failed to save workbook %s: %v", ErrWriteFailure, path, err)
	}

	slog.Debug("Workbook exported", "path", path, "records", len(records))
	return nil
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func splitWeekdays(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '、' || r == '，' || r == ';' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

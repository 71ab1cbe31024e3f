package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/guideops/activity-comb/app/activity"
)

func newTestSheetAdapter() *SheetAdapter {
	return NewSheetAdapter(activity.DefaultPolicy())
}

func TestSheetAdapter_ExportImportRoundTrip(t *testing.T) {
	adapter := newTestSheetAdapter()
	path := filepath.Join(t.TempDir(), "mirror.xlsx")

	records := []activity.Record{
		{
			ActivityNumber: "0001",
			Title:          "Sunset Yoga",
			Category:       "yoga",
			Location:       "Park",
			Price:          "200 THB",
			Time:           "08:00-09:00",
			Weekdays:       []string{"Mon", "Wed"},
			FlexibleTime:   false,
			Description:    "Bring a mat.",
			Status:         activity.StatusActive,
		},
		{
			ActivityNumber: "0002",
			Title:          "Night Market",
			Category:       "market",
			Time:           "flexible",
			FlexibleTime:   true,
			Status:         activity.StatusDraft,
		},
	}

	if err := adapter.Export(path, records); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	imported, err := adapter.Import(path)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if len(imported) != 2 {
		t.Fatalf("Expected 2 imported records, got %d", len(imported))
	}

	first := imported[0]
	if first.ActivityNumber != "0001" || first.Title != "Sunset Yoga" || first.Category != "yoga" {
		t.Errorf("First record fields lost in round trip: %+v", first)
	}
	if len(first.Weekdays) != 2 || first.Weekdays[0] != "Mon" || first.Weekdays[1] != "Wed" {
		t.Errorf("Expected weekdays [Mon Wed], got %v", first.Weekdays)
	}
	if bool(first.FlexibleTime) {
		t.Errorf("Expected flexibleTime no for the first record")
	}
	if !bool(imported[1].FlexibleTime) {
		t.Errorf("Expected flexibleTime yes for the second record")
	}
	if imported[1].Status != activity.StatusDraft {
		t.Errorf("Expected draft status, got %q", imported[1].Status)
	}
}

func TestSheetAdapter_ImportSkipsEmptyRows(t *testing.T) {
	adapter := newTestSheetAdapter()
	path := filepath.Join(t.TempDir(), "mirror.xlsx")

	if err := adapter.Export(path, []activity.Record{
		{ActivityNumber: "0001", Title: "A", Category: "misc", Status: activity.StatusActive},
	}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	// Append an empty row below the data
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue(sheetName, "A4", ""); err != nil {
		t.Fatal(err)
	}
	if err := f.Save(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	imported, err := adapter.Import(path)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(imported) != 1 {
		t.Errorf("Expected empty trailing rows to be skipped, got %d records", len(imported))
	}
}

func TestSheetAdapter_ImportHeaderCaseInsensitive(t *testing.T) {
	adapter := newTestSheetAdapter()
	path := filepath.Join(t.TempDir(), "edited.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	// Headers as a human editor might retype them
	headers := []string{"no.", "TITLE", "category"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			t.Fatal(err)
		}
	}
	row := []string{"0003", "Pottery Class", "craft"}
	for i, value := range row {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	imported, err := adapter.Import(path)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(imported) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(imported))
	}
	if imported[0].Title != "Pottery Class" || imported[0].ActivityNumber != "0003" {
		t.Errorf("Unexpected record: %+v", imported[0])
	}
}

func TestSheetAdapter_MissingTitleColumnRejected(t *testing.T) {
	adapter := newTestSheetAdapter()
	path := filepath.Join(t.TempDir(), "bad.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if err := f.SetCellValue(sheet, "A1", "Unrelated"); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err := adapter.Import(path)
	if err == nil {
		t.Fatalf("Expected an error for a workbook without a title column")
	}
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Errorf("Expected ErrSourceUnreadable, got: %v", err)
	}
}

func TestSheetAdapter_NotAWorkbook(t *testing.T) {
	adapter := newTestSheetAdapter()
	path := filepath.Join(t.TempDir(), "plain.xlsx")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := adapter.Import(path)
	if err == nil {
		t.Fatalf("Expected an error for a non-workbook file")
	}
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Errorf("Expected ErrSourceUnreadable, got: %v", err)
	}
}

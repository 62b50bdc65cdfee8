package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"riceinspector/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "reports_db_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	db, err := New(filepath.Join(tempDir, "nested", "reports.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func report(ts string, whole, broken, foreign, quality int, image string) *model.ReportRecord {
	parsed, _ := time.ParseInLocation(model.TimestampLayout, ts, time.Local)
	return &model.ReportRecord{
		Timestamp:      parsed,
		Total:          whole + broken,
		Whole:          whole,
		Broken:         broken,
		Foreign:        foreign,
		AvgLengthMM:    8.5,
		QualityPercent: quality,
		ImageFile:      image,
	}
}

// ========================================
// Report Repository Tests
// ========================================

func TestReportRepository_InsertAndGet(t *testing.T) {
	repo := NewReportRepository(newTestDB(t))

	r := report("2025-01-04_14-30-00", 7, 3, 1, 70, "rice_scan_2025-01-04_14-30-00.jpg")
	id, err := repo.Insert(r)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == 0 || r.ID != id {
		t.Errorf("Expected the record to receive id %d, got %d", id, r.ID)
	}

	got, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a report")
	}
	if got.Whole != 7 || got.Broken != 3 || got.Foreign != 1 || got.QualityPercent != 70 || got.AvgLengthMM != 8.5 {
		t.Errorf("Unexpected report %+v", got)
	}
	if !got.Timestamp.Equal(r.Timestamp) {
		t.Errorf("Expected timestamp %v, got %v", r.Timestamp, got.Timestamp)
	}

	byImage, err := repo.GetByImageFile("rice_scan_2025-01-04_14-30-00.jpg")
	if err != nil || byImage == nil || byImage.ID != id {
		t.Errorf("GetByImageFile returned %+v, %v", byImage, err)
	}
}

func TestReportRepository_NotFound(t *testing.T) {
	repo := NewReportRepository(newTestDB(t))

	got, err := repo.GetByID(42)
	if err != nil || got != nil {
		t.Errorf("Expected nil, nil; got %+v, %v", got, err)
	}
	got, err = repo.GetByImageFile("missing.jpg")
	if err != nil || got != nil {
		t.Errorf("Expected nil, nil; got %+v, %v", got, err)
	}
}

func TestReportRepository_DuplicateImage(t *testing.T) {
	repo := NewReportRepository(newTestDB(t))

	if _, err := repo.Insert(report("2025-01-04_14-30-00", 1, 0, 0, 100, "a.jpg")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := repo.Insert(report("2025-01-04_14-30-00", 1, 0, 0, 100, "a.jpg")); err == nil {
		t.Error("Expected a unique constraint error")
	}
}

func seedReports(t *testing.T, repo *ReportRepository) {
	t.Helper()
	for _, r := range []*model.ReportRecord{
		report("2025-01-03_09-00-00", 9, 1, 0, 90, "r1.jpg"),
		report("2025-01-04_10-00-00", 5, 5, 2, 50, "r2.jpg"),
		report("2025-01-04_18-00-00", 8, 2, 0, 80, "r3.jpg"),
		report("2025-01-05_07-00-00", 3, 7, 1, 30, "r4.jpg"),
	} {
		if _, err := repo.Insert(r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
}

func TestReportRepository_GetAllFilters(t *testing.T) {
	repo := NewReportRepository(newTestDB(t))
	seedReports(t, repo)

	day := func(s string) time.Time {
		d, _ := time.ParseInLocation("2006-01-02", s, time.Local)
		return d
	}
	yes, no := true, false

	tests := []struct {
		name     string
		filter   *model.ReportFilter
		expected []string
	}{
		{"no filter", nil, []string{"r4.jpg", "r3.jpg", "r2.jpg", "r1.jpg"}},
		{"single day", &model.ReportFilter{StartDate: day("2025-01-04"), EndDate: day("2025-01-04")}, []string{"r3.jpg", "r2.jpg"}},
		{"from day", &model.ReportFilter{StartDate: day("2025-01-04")}, []string{"r4.jpg", "r3.jpg", "r2.jpg"}},
		{"min quality", &model.ReportFilter{MinQuality: 80}, []string{"r3.jpg", "r1.jpg"}},
		{"contaminated", &model.ReportFilter{Contaminated: &yes}, []string{"r4.jpg", "r2.jpg"}},
		{"clean", &model.ReportFilter{Contaminated: &no}, []string{"r3.jpg", "r1.jpg"}},
		{"paged", &model.ReportFilter{Limit: 2, Offset: 1}, []string{"r3.jpg", "r2.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports, err := repo.GetAll(tt.filter)
			if err != nil {
				t.Fatalf("GetAll failed: %v", err)
			}
			if len(reports) != len(tt.expected) {
				t.Fatalf("Expected %d reports, got %d", len(tt.expected), len(reports))
			}
			for i, r := range reports {
				if r.ImageFile != tt.expected[i] {
					t.Errorf("Position %d: expected %s, got %s", i, tt.expected[i], r.ImageFile)
				}
			}
		})
	}
}

func TestReportRepository_CountAndSummary(t *testing.T) {
	repo := NewReportRepository(newTestDB(t))

	empty, err := repo.GetSummary(nil)
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if empty.TotalReports != 0 || empty.AvgQuality != 0 {
		t.Errorf("Expected empty summary, got %+v", empty)
	}

	seedReports(t, repo)

	count, err := repo.GetTotalCount(&model.ReportFilter{Limit: 1})
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected count 4 regardless of limit, got %d", count)
	}

	summary, err := repo.GetSummary(&model.ReportFilter{})
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if summary.TotalReports != 4 || summary.TotalWhole != 25 || summary.TotalBroken != 15 || summary.TotalForeign != 3 {
		t.Errorf("Unexpected totals %+v", summary)
	}
	if summary.AvgQuality != 62.5 {
		t.Errorf("Expected average quality 62.5, got %v", summary.AvgQuality)
	}
	if summary.Contaminations != 2 {
		t.Errorf("Expected 2 contaminated reports, got %d", summary.Contaminations)
	}
}

// ========================================
// Grain Repository Tests
// ========================================

func TestGrainRepository_InsertAndDelete(t *testing.T) {
	db := newTestDB(t)
	reports := NewReportRepository(db)
	grains := NewGrainRepository(db)

	id, err := reports.Insert(report("2025-01-04_14-30-00", 1, 0, 1, 100, "g.jpg"))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	length := 8.25
	err = grains.InsertBatch([]model.GrainRecord{
		{ReportID: id, Class: "whole", Label: "sound_rice", X: 1, Y: 2, Width: 30, Height: 10, Confidence: 0.9, LengthMM: &length},
		{ReportID: id, Class: "foreign", Label: "foreign_object", X: 50, Y: 50, Width: 20, Height: 20, Confidence: 0.7},
	})
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	got, err := grains.GetByReportID(id)
	if err != nil {
		t.Fatalf("GetByReportID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 grains, got %d", len(got))
	}
	if got[0].LengthMM == nil || *got[0].LengthMM != 8.25 {
		t.Errorf("Expected length 8.25, got %v", got[0].LengthMM)
	}
	if got[1].LengthMM != nil {
		t.Errorf("Expected NULL length for foreign matter, got %v", *got[1].LengthMM)
	}

	if err := reports.Delete(id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got, _ := grains.GetByReportID(id); len(got) != 0 {
		t.Errorf("Expected grains to be deleted with their report, got %d", len(got))
	}
	if r, _ := reports.GetByID(id); r != nil {
		t.Error("Expected report to be deleted")
	}
}

func TestGrainRepository_EmptyBatch(t *testing.T) {
	grains := NewGrainRepository(newTestDB(t))

	if err := grains.InsertBatch(nil); err != nil {
		t.Errorf("Empty batch should succeed: %v", err)
	}
	got, err := grains.GetByReportID(1)
	if err != nil || len(got) != 0 {
		t.Errorf("Expected no grains, got %v, %v", got, err)
	}
	if err := grains.DeleteByReportID(1); err != nil {
		t.Errorf("DeleteByReportID failed: %v", err)
	}
}

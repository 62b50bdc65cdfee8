package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"riceinspector/internal/config"
	"riceinspector/internal/logger"
	"riceinspector/internal/model"
	"riceinspector/internal/repository/sqlite"
	"riceinspector/internal/service/storage"
)

// ========================================
// Test Setup Helpers
// ========================================

type testEnv struct {
	reports  *sqlite.ReportRepository
	grains   *sqlite.GrainRepository
	recorder *storage.RecorderService
	dir      string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "reports_handler_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	db, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		ReportDirectory: filepath.Join(tempDir, "reports"),
		ReportLogPath:   filepath.Join(tempDir, "reports", "log.csv"),
	}
	reports := sqlite.NewReportRepository(db)
	grains := sqlite.NewGrainRepository(db)
	recorder, err := storage.NewRecorderService(cfg, logger.NewNop(), reports, grains)
	if err != nil {
		t.Fatalf("Failed to create recorder: %v", err)
	}

	return &testEnv{reports: reports, grains: grains, recorder: recorder, dir: cfg.ReportDirectory}
}

func (e *testEnv) addReport(t *testing.T, ts string, whole, broken, foreign, quality int) *model.ReportRecord {
	t.Helper()
	parsed, _ := time.ParseInLocation(model.TimestampLayout, ts, time.Local)
	r := &model.ReportRecord{
		Timestamp:      parsed,
		Total:          whole + broken,
		Whole:          whole,
		Broken:         broken,
		Foreign:        foreign,
		QualityPercent: quality,
		ImageFile:      storage.ImageName(parsed),
	}
	if _, err := e.reports.Insert(r); err != nil {
		t.Fatalf("Failed to insert report: %v", err)
	}
	if err := os.WriteFile(filepath.Join(e.dir, r.ImageFile), []byte("fake jpeg"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return r
}

// ========================================
// Report List Tests
// ========================================

func TestGetReportsHandler_Pagination(t *testing.T) {
	env := setupTestEnv(t)
	for i := 0; i < 5; i++ {
		env.addReport(t, time.Date(2025, 1, 4, 10, i, 0, 0, time.Local).Format(model.TimestampLayout), 8, 2, 0, 80)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/reports?page=2&limit=2", nil)
	rec := httptest.NewRecorder()
	GetReportsHandler(logger.NewNop(), env.reports)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var data struct {
		Reports     []map[string]interface{} `json:"reports"`
		Summary     model.ReportSummary      `json:"summary"`
		Length      int                      `json:"length"`
		TotalPages  int                      `json:"totalPages"`
		CurrentPage int                      `json:"currentPage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if len(data.Reports) != 2 || data.Length != 5 || data.TotalPages != 3 || data.CurrentPage != 2 {
		t.Fatalf("Unexpected pagination: %d reports, length %d, pages %d, page %d",
			len(data.Reports), data.Length, data.TotalPages, data.CurrentPage)
	}
	if data.Summary.TotalReports != 5 || data.Summary.TotalWhole != 40 {
		t.Errorf("Summary should cover all matching reports, got %+v", data.Summary)
	}
	if data.Reports[0]["date"] != "04-01-2025" || data.Reports[0]["timeOfDay"] != "10:02:00" {
		t.Errorf("Unexpected date formatting: %v %v", data.Reports[0]["date"], data.Reports[0]["timeOfDay"])
	}
}

func TestGetReportsHandler_Filters(t *testing.T) {
	env := setupTestEnv(t)
	env.addReport(t, "2025-01-03_09-00-00", 9, 1, 0, 90)
	env.addReport(t, "2025-01-04_09-00-00", 5, 5, 2, 50)
	env.addReport(t, "2025-01-05_09-00-00", 8, 2, 0, 80)

	tests := []struct {
		query    string
		expected int
	}{
		{"", 3},
		{"?dateAfter=2025-01-04", 2},
		{"?dateBefore=2025-01-04", 2},
		{"?dateAfter=2025-01-04&dateBefore=2025-01-04", 1},
		{"?minQuality=80", 2},
		{"?contaminated=true", 1},
		{"?contaminated=false", 2},
		{"?contaminated=maybe", 3},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/reports"+tt.query, nil)
		rec := httptest.NewRecorder()
		GetReportsHandler(logger.NewNop(), env.reports)(rec, req)

		var data struct {
			Length int `json:"length"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
			t.Fatalf("Invalid JSON for %q: %v", tt.query, err)
		}
		if data.Length != tt.expected {
			t.Errorf("Query %q: expected %d reports, got %d", tt.query, tt.expected, data.Length)
		}
	}
}

// ========================================
// Grain and Image Tests
// ========================================

func TestGetReportGrainsHandler(t *testing.T) {
	env := setupTestEnv(t)
	r := env.addReport(t, "2025-01-04_09-00-00", 1, 0, 0, 100)
	length := 8.5
	if err := env.grains.InsertBatch([]model.GrainRecord{{ReportID: r.ID, Class: "whole", Label: "sound_rice", LengthMM: &length}}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	handler := GetReportGrainsHandler(logger.NewNop(), env.grains)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/reports/grains?id=1", nil))
	var grains []model.GrainRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &grains); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(grains) != 1 || grains[0].Label != "sound_rice" {
		t.Errorf("Unexpected grains %+v", grains)
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/reports/grains?id=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad id, got %d", rec.Code)
	}
}

func TestViewReportImageHandler(t *testing.T) {
	env := setupTestEnv(t)
	r := env.addReport(t, "2025-01-04_09-00-00", 1, 0, 0, 100)
	handler := ViewReportImageHandler(env.recorder)

	tests := []struct {
		query    string
		expected int
	}{
		{"?image=" + r.ImageFile, http.StatusOK},
		{"", http.StatusBadRequest},
		{"?image=../test.db", http.StatusBadRequest},
		{"?image=missing.jpg", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/api/reports/view"+tt.query, nil))
		if rec.Code != tt.expected {
			t.Errorf("Query %q: expected %d, got %d", tt.query, tt.expected, rec.Code)
		}
	}
}

func TestDeleteReportHandler(t *testing.T) {
	env := setupTestEnv(t)
	r := env.addReport(t, "2025-01-04_09-00-00", 1, 0, 0, 100)
	handler := DeleteReportHandler(logger.NewNop(), env.reports, env.grains, env.recorder)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/reports/delete?id=1", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/reports/delete?id=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if _, err := os.Stat(filepath.Join(env.dir, r.ImageFile)); !os.IsNotExist(err) {
		t.Error("Image file should be deleted")
	}
	if got, _ := env.reports.GetByID(r.ID); got != nil {
		t.Error("Report should be deleted from the database")
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/reports/delete?id=1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for a deleted report, got %d", rec.Code)
	}
}

// ========================================
// Helper Function Tests
// ========================================

func TestAtoiDefault(t *testing.T) {
	tests := []struct {
		input    string
		def      int
		expected int
	}{
		{"10", 5, 10},
		{"", 5, 5},
		{"abc", 10, 10},
		{"-1", 5, 5},
		{"0", 5, 5},
		{"12.5", 5, 5},
	}

	for _, tt := range tests {
		if result := atoiDefault(tt.input, tt.def); result != tt.expected {
			t.Errorf("atoiDefault(%q, %d) = %d, expected %d", tt.input, tt.def, result, tt.expected)
		}
	}
}

func TestParseDate(t *testing.T) {
	if d := parseDate("2025-01-04"); d.Year() != 2025 || d.Month() != time.January || d.Day() != 4 {
		t.Errorf("Unexpected date %v", d)
	}
	for _, v := range []string{"", "04-01-2025", "tomorrow"} {
		if d := parseDate(v); !d.IsZero() {
			t.Errorf("parseDate(%q) should be zero, got %v", v, d)
		}
	}
}

func TestParseBool(t *testing.T) {
	if b := parseBool("true"); b == nil || !*b {
		t.Error("Expected true")
	}
	if b := parseBool("0"); b == nil || *b {
		t.Error("Expected false")
	}
	if b := parseBool(""); b != nil {
		t.Error("Expected nil for empty value")
	}
}

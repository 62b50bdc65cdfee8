package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDetectionResult_Area(t *testing.T) {
	tests := []struct {
		det      DetectionResult
		expected int
	}{
		{DetectionResult{X1: 0, Y1: 0, X2: 30, Y2: 20}, 600},
		{DetectionResult{X1: 10, Y1: 10, X2: 15, Y2: 20}, 50},
		{DetectionResult{X1: 5, Y1: 5, X2: 5, Y2: 40}, 0},
	}

	for _, tt := range tests {
		if got := tt.det.Area(); got != tt.expected {
			t.Errorf("Area() of %+v = %d, expected %d", tt.det, got, tt.expected)
		}
		if got := tt.det.Rect().Dx() * tt.det.Rect().Dy(); got != tt.expected {
			t.Errorf("Rect() area of %+v = %d, expected %d", tt.det, got, tt.expected)
		}
	}
}

func TestReportInfo_MarshalJSON(t *testing.T) {
	ts := time.Date(2025, 6, 15, 14, 30, 5, 0, time.UTC)
	info := ReportInfo{
		ID:             3,
		Date:           ts,
		TimeOfDay:      ts,
		Whole:          7,
		Broken:         3,
		QualityPercent: 70,
		Image:          "rice_scan_2025-06-15_14-30-05.jpg",
	}

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}

	jsonStr := string(data)
	if !strings.Contains(jsonStr, `"date":"15-06-2025"`) {
		t.Errorf("Expected date format DD-MM-YYYY, got: %s", jsonStr)
	}
	if !strings.Contains(jsonStr, `"timeOfDay":"14:30:05"`) {
		t.Errorf("Expected time format HH:MM:SS, got: %s", jsonStr)
	}
	if !strings.Contains(jsonStr, `"qualityPercent":70`) {
		t.Errorf("Expected quality in output, got: %s", jsonStr)
	}
}

package model

import (
	"math"
	"strconv"
	"strings"
)

// FrameStatistics aggregates one frame. It is rebuilt from scratch every frame.
type FrameStatistics struct {
	Whole          int       `json:"whole"`
	Broken         int       `json:"broken"`
	Foreign        int       `json:"foreign"`
	LengthsPx      []float64 `json:"lengths_px"`
	AvgLengthMM    float64   `json:"avg_length_mm"`
	QualityPercent int       `json:"quality_percent"`
}

// Total counts rice grains only; foreign matter is not rice.
func (s FrameStatistics) Total() int {
	return s.Whole + s.Broken
}

// Contaminated reports whether any foreign matter was seen.
func (s FrameStatistics) Contaminated() bool {
	return s.Foreign > 0
}

// FormatLength prints a length in millimetres with at most two decimals and at
// least one, e.g. 8.7, 10.0, 7.25.
func FormatLength(mm float64) string {
	s := strconv.FormatFloat(math.Round(mm*100)/100, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

package grain

import (
	"testing"

	"riceinspector/internal/model"
)

func TestQualityPercent(t *testing.T) {
	tests := []struct {
		whole, broken int
		expected      int
	}{
		{7, 3, 70},
		{0, 0, 0},
		{1, 0, 100},
		{0, 5, 0},
		{2, 1, 66},
		{29, 71, 29},
	}

	for _, tt := range tests {
		if got := QualityPercent(tt.whole, tt.broken); got != tt.expected {
			t.Errorf("QualityPercent(%d, %d) = %d, expected %d", tt.whole, tt.broken, got, tt.expected)
		}
	}
}

func TestAverageLengthMM(t *testing.T) {
	tests := []struct {
		name        string
		lengths     []float64
		pixelsPerMM float64
		expected    float64
	}{
		{"two grains", []float64{40.0, 44.0}, 4.0, 10.5},
		{"empty", nil, 4.0, 0.0},
		{"rounded", []float64{25.0, 26.0, 27.0}, 3.0, 8.67},
		{"single", []float64{23.0}, 4.0, 5.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageLengthMM(tt.lengths, tt.pixelsPerMM); got != tt.expected {
				t.Errorf("AverageLengthMM(%v, %v) = %v, expected %v", tt.lengths, tt.pixelsPerMM, got, tt.expected)
			}
		})
	}
}

func TestAggregate_Partition(t *testing.T) {
	grains := []model.Grain{
		{Class: model.Whole}, {Class: model.Whole}, {Class: model.Broken},
		{Class: model.Foreign}, {Class: model.Whole}, {Class: model.Broken},
	}

	stats := Aggregate(grains, []float64{40, 44}, 4.0)

	if stats.Whole+stats.Broken+stats.Foreign != len(grains) {
		t.Errorf("Counts %+v do not partition %d grains", stats, len(grains))
	}
	if stats.Whole != 3 || stats.Broken != 2 || stats.Foreign != 1 {
		t.Errorf("Unexpected counts: %+v", stats)
	}
	if stats.QualityPercent != 60 {
		t.Errorf("Expected quality 60, got %d", stats.QualityPercent)
	}
	if stats.AvgLengthMM != 10.5 {
		t.Errorf("Expected average 10.5, got %v", stats.AvgLengthMM)
	}
}

func TestAggregate_NoGrains(t *testing.T) {
	stats := Aggregate(nil, nil, 4.0)

	if stats.Whole != 0 || stats.Broken != 0 || stats.Foreign != 0 {
		t.Errorf("Expected zero counts, got %+v", stats)
	}
	if stats.QualityPercent != 0 || stats.AvgLengthMM != 0 {
		t.Errorf("Expected zero metrics, got %+v", stats)
	}
}

func TestAggregate_ForeignOnly(t *testing.T) {
	stats := Aggregate([]model.Grain{{Class: model.Foreign}}, nil, 4.0)

	if stats.QualityPercent != 0 {
		t.Errorf("Foreign matter must not affect quality, got %d", stats.QualityPercent)
	}
	if !stats.Contaminated() {
		t.Error("Expected contaminated frame")
	}
}

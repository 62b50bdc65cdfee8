package grain

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"riceinspector/internal/model"
)

// Aggregate tallies one frame. Every grain increments exactly one class count;
// lengthsPx holds the lengths of the grains that could be measured.
func Aggregate(grains []model.Grain, lengthsPx []float64, pixelsPerMM float64) model.FrameStatistics {
	stats := model.FrameStatistics{LengthsPx: lengthsPx}
	for _, g := range grains {
		switch g.Class {
		case model.Whole:
			stats.Whole++
		case model.Broken:
			stats.Broken++
		case model.Foreign:
			stats.Foreign++
		}
	}

	stats.QualityPercent = QualityPercent(stats.Whole, stats.Broken)
	stats.AvgLengthMM = AverageLengthMM(lengthsPx, pixelsPerMM)
	return stats
}

// QualityPercent is whole grains as a percentage of whole+broken, rounded down.
// Foreign matter is not part of the ratio.
func QualityPercent(whole, broken int) int {
	total := whole + broken
	if total <= 0 {
		return 0
	}
	return whole * 100 / total
}

// AverageLengthMM is the mean pixel length converted to millimetres and rounded
// to two decimals. It is 0 when nothing was measured.
func AverageLengthMM(lengthsPx []float64, pixelsPerMM float64) float64 {
	if len(lengthsPx) == 0 || pixelsPerMM <= 0 {
		return 0
	}
	mean := stat.Mean(lengthsPx, nil)
	return math.Round(mean/pixelsPerMM*100) / 100
}

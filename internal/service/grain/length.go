package grain

import (
	"math"

	"gocv.io/x/gocv"
)

// LengthEstimator measures grain length along its long axis.
type LengthEstimator struct {
	pixelsPerMM float64
}

func NewLengthEstimator(pixelsPerMM float64) LengthEstimator {
	return LengthEstimator{pixelsPerMM: pixelsPerMM}
}

// Estimate fits the minimum-area rotated rectangle around the silhouette and
// returns its longer side in pixels and millimetres. A grain lying at any angle
// yields its long axis, not an axis-aligned overestimate.
func (e LengthEstimator) Estimate(s Silhouette) (lengthPx, lengthMM float64) {
	if len(s.Points) == 0 {
		return 0, 0
	}

	points := gocv.NewPointVectorFromPoints(s.Points)
	defer points.Close()

	rect := gocv.MinAreaRect(points)
	lengthPx = math.Max(float64(rect.Width), float64(rect.Height))
	return lengthPx, e.ToMM(lengthPx)
}

// ToMM converts a pixel length using the calibration factor.
func (e LengthEstimator) ToMM(px float64) float64 {
	return px / e.pixelsPerMM
}

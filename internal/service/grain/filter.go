package grain

import "riceinspector/internal/dto"

// Postprocessor filters the detections of one frame.
type Postprocessor func([]dto.DetectionResult) []dto.DetectionResult

// NewAreaFilter returns a Postprocessor that keeps detections whose box area
// lies within [minArea, maxArea].
func NewAreaFilter(minArea, maxArea int) Postprocessor {
	return func(in []dto.DetectionResult) []dto.DetectionResult {
		return FilterByArea(in, minArea, maxArea)
	}
}

// FilterByArea drops detections whose box area is below minArea or above maxArea.
// Order is preserved and the input slice is not modified.
func FilterByArea(detections []dto.DetectionResult, minArea, maxArea int) []dto.DetectionResult {
	out := make([]dto.DetectionResult, 0, len(detections))
	for _, det := range detections {
		area := det.Area()
		if area < minArea || area > maxArea {
			continue
		}
		out = append(out, det)
	}
	return out
}

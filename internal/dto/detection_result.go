package dto

import "image"

// DetectionResult is one raw detector output in frame pixel coordinates.
type DetectionResult struct {
	Label      string
	ClassID    int
	Confidence float64
	X1         int
	Y1         int
	X2         int
	Y2         int
}

// Area is the integer pixel area of the bounding box.
func (d DetectionResult) Area() int {
	return (d.X2 - d.X1) * (d.Y2 - d.Y1)
}

// Rect returns the bounding box as an image.Rectangle.
func (d DetectionResult) Rect() image.Rectangle {
	return image.Rect(d.X1, d.Y1, d.X2, d.Y2)
}

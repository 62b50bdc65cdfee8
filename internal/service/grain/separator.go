package grain

import (
	"image"

	"gocv.io/x/gocv"
)

// Silhouette is the outline of a single grain in frame coordinates.
type Silhouette struct {
	Points []image.Point
	Area   float64
}

// Separator isolates one grain inside a detection box. Touching grains usually
// share only a thin bridge of pixels, so the binary mask is eroded once before
// contours are extracted and the largest remaining blob is kept.
type Separator struct {
	kernel gocv.Mat
}

// NewSeparator creates a Separator with a 3x3 rectangular structuring element.
func NewSeparator() *Separator {
	return &Separator{
		kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}
}

// Close releases the structuring element.
func (s *Separator) Close() error {
	return s.kernel.Close()
}

// Separate returns the grain silhouette inside box. The second result is false
// when the box does not overlap the frame or no contour survives erosion.
// The frame is only read.
func (s *Separator) Separate(frame gocv.Mat, box image.Rectangle) (Silhouette, bool) {
	box = box.Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
	if box.Empty() {
		return Silhouette{}, false
	}

	roi := frame.Region(box)
	defer roi.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	if roi.Channels() == 1 {
		roi.CopyTo(&gray)
	} else if err := gocv.CvtColor(roi, &gray, gocv.ColorBGRToGray); err != nil {
		return Silhouette{}, false
	}

	// Otsu picks the split point; inverted so dark grain pixels become foreground.
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(gray, &mask, 0, 255, gocv.ThresholdBinaryInv+gocv.ThresholdOtsu)

	eroded := gocv.NewMat()
	defer eroded.Close()
	gocv.Erode(mask, &eroded, s.kernel)

	silhouette, ok := LargestSilhouette(eroded)
	if !ok {
		return Silhouette{}, false
	}
	for i := range silhouette.Points {
		silhouette.Points[i] = silhouette.Points[i].Add(box.Min)
	}
	return silhouette, true
}

// LargestSilhouette extracts the external contours of a binary mask and returns
// the one enclosing the largest area. Ties keep the first contour found.
func LargestSilhouette(mask gocv.Mat) (Silhouette, bool) {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best := -1
	bestArea := -1.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > bestArea {
			best = i
			bestArea = area
		}
	}
	if best < 0 {
		return Silhouette{}, false
	}

	return Silhouette{
		Points: contours.At(best).ToPoints(),
		Area:   bestArea,
	}, true
}

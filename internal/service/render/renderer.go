package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"riceinspector/internal/model"
	"riceinspector/internal/service/grain"
)

// WindowTitle is the name of the local display window.
const WindowTitle = "Rice Quality Inspector (Pro)"

var (
	green  = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	red    = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	black  = color.RGBA{R: 0, G: 0, B: 0, A: 0}
	white  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	yellow = color.RGBA{R: 255, G: 255, B: 0, A: 0}
	silver = color.RGBA{R: 200, G: 200, B: 200, A: 0}
)

// Panel geometry of the statistics box in the top left corner.
var (
	panelRect    = image.Rect(5, 5, 280, 200)
	bannerOrigin = image.Pt(300, 50)
)

// Dashboard draws grain boxes and the statistics panel over a frame.
type Dashboard struct{}

func NewDashboard() *Dashboard {
	return &Dashboard{}
}

// Render returns a new frame with the analysis drawn on top. The input frame is
// left untouched; the caller owns the returned Mat.
func (d *Dashboard) Render(frame gocv.Mat, analysis grain.Analysis) (gocv.Mat, error) {
	canvas := frame.Clone()

	for _, g := range analysis.Grains {
		c := boxColor(g.Class)
		if err := gocv.Rectangle(&canvas, g.Box, c, 2); err != nil {
			canvas.Close()
			return gocv.Mat{}, fmt.Errorf("failed to draw rectangle: %w", err)
		}
		if err := gocv.PutText(&canvas, g.Label, image.Pt(g.Box.Min.X, g.Box.Min.Y-10), gocv.FontHersheySimplex, 0.5, c, 2); err != nil {
			canvas.Close()
			return gocv.Mat{}, fmt.Errorf("failed to draw text: %w", err)
		}
	}

	stats := analysis.Stats
	overlay := canvas.Clone()
	defer overlay.Close()

	panel := black
	if stats.Contaminated() {
		panel = red
		if err := gocv.PutText(&canvas, "CONTAMINATION!", bannerOrigin, gocv.FontHersheySimplex, 0.8, red, 3); err != nil {
			canvas.Close()
			return gocv.Mat{}, fmt.Errorf("failed to draw text: %w", err)
		}
	}
	if err := gocv.Rectangle(&overlay, panelRect, panel, -1); err != nil {
		canvas.Close()
		return gocv.Mat{}, fmt.Errorf("failed to draw panel: %w", err)
	}

	out := gocv.NewMat()
	gocv.AddWeighted(overlay, 0.6, canvas, 0.4, 0, &out)
	canvas.Close()

	lines := []struct {
		text      string
		origin    image.Point
		scale     float64
		c         color.RGBA
		thickness int
	}{
		{fmt.Sprintf("TOTAL:  %d", stats.Total()), image.Pt(15, 35), 0.8, white, 2},
		{fmt.Sprintf("Whole:  %d", stats.Whole), image.Pt(15, 70), 0.6, green, 2},
		{fmt.Sprintf("Broken: %d", stats.Broken), image.Pt(15, 100), 0.6, red, 2},
		{fmt.Sprintf("Avg Size:%s mm", model.FormatLength(stats.AvgLengthMM)), image.Pt(15, 140), 0.7, yellow, 2},
		{fmt.Sprintf("Quality: %d%%", stats.QualityPercent), image.Pt(15, 180), 0.6, silver, 1},
	}
	for _, l := range lines {
		if err := gocv.PutText(&out, l.text, l.origin, gocv.FontHersheySimplex, l.scale, l.c, l.thickness); err != nil {
			out.Close()
			return gocv.Mat{}, fmt.Errorf("failed to draw text: %w", err)
		}
	}

	return out, nil
}

// Flash returns a brightened copy of frame, shown briefly after a save.
func (d *Dashboard) Flash(frame gocv.Mat) gocv.Mat {
	whiteFrame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), frame.Rows(), frame.Cols(), frame.Type())
	defer whiteFrame.Close()

	out := gocv.NewMat()
	gocv.AddWeighted(frame, 0.5, whiteFrame, 0.5, 0, &out)
	return out
}

// Encode compresses a frame to JPEG.
func Encode(frame gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}

func boxColor(class model.GrainClass) color.RGBA {
	if class == model.Whole {
		return green
	}
	return red
}

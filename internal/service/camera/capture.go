package camera

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"riceinspector/internal/logger"
)

// CaptureSource reads frames from an OpenCV video capture.
type CaptureSource struct {
	capture *gocv.VideoCapture
	name    string
}

// OpenDevice probes the candidate device indices in order and returns the
// first one that opens and delivers a test frame.
func OpenDevice(indices []int, width, height int, logger *logger.Logger) (*CaptureSource, error) {
	probe := gocv.NewMat()
	defer probe.Close()

	for _, index := range indices {
		logger.Info("Testing camera index %d...", index)

		capture, err := gocv.VideoCaptureDevice(index)
		if err != nil {
			logger.Warning("Camera index %d: %v", index, err)
			continue
		}
		if !capture.IsOpened() {
			capture.Close()
			continue
		}

		capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(height))

		if capture.Read(&probe) && !probe.Empty() {
			logger.Info("Found camera at index %d", index)
			return &CaptureSource{capture: capture, name: fmt.Sprintf("device %d", index)}, nil
		}
		capture.Close()
	}

	return nil, fmt.Errorf("probed indices %v: %w", indices, ErrNoCamera)
}

// OpenFile opens a video file or stream URI.
func OpenFile(uri string, logger *logger.Logger) (*CaptureSource, error) {
	capture, err := gocv.VideoCaptureFile(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", uri, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("failed to open %s: %w", uri, ErrNoCamera)
	}

	logger.Info("Reading frames from %s", uri)
	return &CaptureSource{capture: capture, name: uri}, nil
}

// NextFrame reads one frame. A failed or empty read ends the stream.
func (c *CaptureSource) NextFrame(ctx context.Context, dst *gocv.Mat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.capture.Read(dst) || dst.Empty() {
		return ErrEndOfStream
	}
	return nil
}

func (c *CaptureSource) String() string {
	return c.name
}

// Close releases the capture device.
func (c *CaptureSource) Close() error {
	return c.capture.Close()
}

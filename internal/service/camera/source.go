package camera

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"riceinspector/internal/config"
	"riceinspector/internal/logger"
)

var (
	// ErrEndOfStream is returned by NextFrame when no further frame can be read.
	ErrEndOfStream = errors.New("end of stream")
	// ErrNoCamera is returned when none of the candidate devices delivers a frame.
	ErrNoCamera = errors.New("no camera found")
)

// FrameSource delivers BGR frames to the inspection loop.
type FrameSource interface {
	// NextFrame reads the next frame into dst.
	NextFrame(ctx context.Context, dst *gocv.Mat) error
	Close() error
}

// Open selects the video source from the configuration: an explicit URI wins,
// then the UDP camera port, then probing of the local capture devices.
func Open(config *config.Config, logger *logger.Logger) (FrameSource, error) {
	switch {
	case config.CameraURI != "":
		return OpenFile(config.CameraURI, logger)
	case config.CamerasPort > 0:
		return ListenUDP(config.CamerasPort, time.Duration(config.CameraTimeout)*time.Second, logger)
	default:
		return OpenDevice(config.CameraIndices, config.FrameWidth, config.FrameHeight, logger)
	}
}

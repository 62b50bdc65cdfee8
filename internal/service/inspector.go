package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"riceinspector/internal/dto"
	"riceinspector/internal/logger"
	"riceinspector/internal/model"
	"riceinspector/internal/service/camera"
	"riceinspector/internal/service/control"
	"riceinspector/internal/service/grain"
	"riceinspector/internal/service/render"
)

// FlashDuration is how long the white flash stays on screen after a save.
const FlashDuration = 100 * time.Millisecond

// Detector finds grain candidates in a frame. Results are already above the
// detector's confidence threshold.
type Detector interface {
	Detect(frame gocv.Mat) ([]dto.DetectionResult, error)
}

// Recorder persists a rendered frame and its statistics.
type Recorder interface {
	Save(jpeg []byte, analysis grain.Analysis) (model.ReportRecord, error)
}

// Publisher streams rendered frames to remote viewers.
type Publisher interface {
	GetClientCount() int
	BroadcastFrame(jpeg []byte, stats model.FrameStatistics) error
}

// Inspector runs the inspection loop: read, detect, analyse, render, show,
// wait for input, optionally save. Everything touching frames, the detector and
// the recorder happens on the goroutine calling Run.
type Inspector struct {
	source     camera.FrameSource
	detector   Detector
	analyzer   *grain.Analyzer
	dashboard  *render.Dashboard
	controller control.Controller
	remote     *control.Remote
	recorder   Recorder
	publisher  Publisher
	logger     *logger.Logger

	mu     sync.RWMutex
	status dto.LiveStatus
}

func NewInspector(source camera.FrameSource, detector Detector, analyzer *grain.Analyzer, controller control.Controller,
	remote *control.Remote, recorder Recorder, publisher Publisher, logger *logger.Logger) *Inspector {
	return &Inspector{
		source:     source,
		detector:   detector,
		analyzer:   analyzer,
		dashboard:  render.NewDashboard(),
		controller: controller,
		remote:     remote,
		recorder:   recorder,
		publisher:  publisher,
		logger:     logger,
	}
}

// Remote returns the queue through which other goroutines send actions.
func (i *Inspector) Remote() *control.Remote {
	return i.remote
}

// Status returns a snapshot of the latest frame statistics.
func (i *Inspector) Status() dto.LiveStatus {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.status
}

// Run processes frames until the stream ends, the operator quits or ctx is
// cancelled. The frame source is closed before Run returns.
func (i *Inspector) Run(ctx context.Context) error {
	i.setRunning(true)
	defer i.setRunning(false)
	defer func() {
		if err := i.source.Close(); err != nil {
			i.logger.Error("Failed to release video source: %v", err)
		}
	}()
	defer i.remote.Drain(control.ErrStopped)

	frame := gocv.NewMat()
	defer frame.Close()

	i.logger.Info("Inspection started")
	for {
		if err := i.source.NextFrame(ctx, &frame); err != nil {
			if errors.Is(err, camera.ErrEndOfStream) {
				i.logger.Info("Video stream ended: %v", err)
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}

		if quit := i.step(ctx, frame); quit {
			i.logger.Info("Inspection stopped by operator")
			return nil
		}
	}
}

// step handles one frame and the input that follows it. It reports whether
// the loop should stop.
func (i *Inspector) step(ctx context.Context, frame gocv.Mat) bool {
	rendered, analysis, ok := i.process(frame)
	if ok {
		defer rendered.Close()
	}

	var jpeg []byte
	if ok && i.publisher != nil && i.publisher.GetClientCount() > 0 {
		jpeg = i.encode(rendered)
		if jpeg != nil {
			if err := i.publisher.BroadcastFrame(jpeg, analysis.Stats); err != nil {
				i.logger.Error("Failed to publish frame: %v", err)
			}
		}
	}

	cmd := i.controller.Await(ctx)
	switch cmd.Action {
	case control.Quit:
		cmd.Done(nil)
		return true
	case control.Save:
		if !ok {
			cmd.Done(fmt.Errorf("no analysed frame to save"))
			return false
		}
		if jpeg == nil {
			jpeg = i.encode(rendered)
		}
		record, err := i.save(rendered, jpeg, analysis)
		if err != nil {
			cmd.Done(err)
			return false
		}
		cmd.Saved(record)
	}
	return false
}

// process analyses a frame and renders the dashboard. A detector error skips
// the frame.
func (i *Inspector) process(frame gocv.Mat) (gocv.Mat, grain.Analysis, bool) {
	detections, err := i.detector.Detect(frame)
	if err != nil {
		i.logger.Error("Detection failed, skipping frame: %v", err)
		return gocv.Mat{}, grain.Analysis{}, false
	}

	analysis := i.analyzer.Analyze(frame, detections)
	i.updateStatus(analysis.Stats)

	rendered, err := i.dashboard.Render(frame, analysis)
	if err != nil {
		i.logger.Error("Failed to render dashboard: %v", err)
		return gocv.Mat{}, grain.Analysis{}, false
	}

	i.controller.Show(rendered)
	return rendered, analysis, true
}

func (i *Inspector) encode(frame gocv.Mat) []byte {
	jpeg, err := render.Encode(frame)
	if err != nil {
		i.logger.Error("%v", err)
		return nil
	}
	return jpeg
}

func (i *Inspector) save(rendered gocv.Mat, jpeg []byte, analysis grain.Analysis) (model.ReportRecord, error) {
	if jpeg == nil {
		return model.ReportRecord{}, fmt.Errorf("frame could not be encoded")
	}

	record, err := i.recorder.Save(jpeg, analysis)
	if err != nil {
		i.logger.Error("Failed to save report: %v", err)
		return model.ReportRecord{}, err
	}

	i.mu.Lock()
	i.status.LastReport = &record
	i.mu.Unlock()

	flash := i.dashboard.Flash(rendered)
	i.controller.Show(flash)
	i.controller.Pause(FlashDuration)
	flash.Close()
	return record, nil
}

func (i *Inspector) updateStatus(stats model.FrameStatistics) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.status.Frames++
	i.status.UpdatedAt = time.Now()
	i.status.Stats = stats
	i.status.Total = stats.Total()
	i.status.Contaminated = stats.Contaminated()
}

func (i *Inspector) setRunning(running bool) {
	i.mu.Lock()
	i.status.Running = running
	i.mu.Unlock()
}

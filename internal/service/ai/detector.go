package ai

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"riceinspector/internal/config"
	"riceinspector/internal/dto"
	"riceinspector/internal/logger"
)

// ErrNetNotLoaded is returned by Detect when the network failed to load.
var ErrNetNotLoaded = errors.New("detection network not loaded")

// classOffset shifts boxes of different classes apart so a single
// class-agnostic NMS pass suppresses overlaps only within a class.
const classOffset = 7680

// DetectorService runs a YOLO ONNX model exported with a [1, 4+classes, N] head.
type DetectorService struct {
	net       gocv.Net
	loaded    bool
	labels    config.Labels
	pipeline  config.PipelineConfig
	modelPath string
	logger    *logger.Logger
}

// candidate is one decoded prediction in network input coordinates.
type candidate struct {
	classID int
	score   float32
	cx, cy  float32
	w, h    float32
}

// NewDetectorService loads the model at config.ModelPath. A model that cannot
// be loaded is an initialization error.
func NewDetectorService(config *config.Config, labels config.Labels, logger *logger.Logger) (*DetectorService, error) {
	service := &DetectorService{
		labels:    labels,
		pipeline:  config.Pipeline,
		modelPath: config.ModelPath,
		logger:    logger,
	}

	if err := service.initializeNet(); err != nil {
		return nil, fmt.Errorf("could not initialize detection network: %w", err)
	}

	return service, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.modelPath)
	}

	net := gocv.ReadNet(s.modelPath, "")
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", s.modelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	s.net = net
	s.loaded = true
	s.logger.Info("Detection network initialized from %s (%d classes)", s.modelPath, len(s.labels))
	return nil
}

// Detect runs the network on a BGR frame and returns the detections above the
// confidence threshold after non-maximum suppression, in frame pixels.
func (s *DetectorService) Detect(frame gocv.Mat) ([]dto.DetectionResult, error) {
	if !s.loaded {
		return nil, ErrNetNotLoaded
	}
	if frame.Empty() {
		return nil, fmt.Errorf("frame is empty")
	}

	size := s.pipeline.InputSize
	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}

	candidates, err := decodeOutput(data, output.Size(), float32(s.pipeline.ConfThreshold))
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []dto.DetectionResult{}, nil
	}

	xFactor := float32(frame.Cols()) / float32(size)
	yFactor := float32(frame.Rows()) / float32(size)

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.rect(xFactor, yFactor).Add(image.Pt(c.classID*classOffset, 0))
		scores[i] = c.score
	}
	keep := gocv.NMSBoxes(boxes, scores, float32(s.pipeline.ConfThreshold), float32(s.pipeline.NMSThreshold))

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	results := make([]dto.DetectionResult, 0, len(keep))
	for _, idx := range keep {
		c := candidates[idx]
		r := c.rect(xFactor, yFactor).Intersect(bounds)
		if r.Empty() {
			continue
		}
		results = append(results, dto.DetectionResult{
			Label:      s.labels.Name(c.classID),
			ClassID:    c.classID,
			Confidence: float64(c.score),
			X1:         r.Min.X,
			Y1:         r.Min.Y,
			X2:         r.Max.X,
			Y2:         r.Max.Y,
		})
	}

	return results, nil
}

// Close releases the network.
func (s *DetectorService) Close() error {
	if !s.loaded {
		return nil
	}
	s.loaded = false
	return s.net.Close()
}

// rect converts the center/size box to frame pixel corners.
func (c candidate) rect(xFactor, yFactor float32) image.Rectangle {
	x1 := int((c.cx - c.w/2) * xFactor)
	y1 := int((c.cy - c.h/2) * yFactor)
	x2 := int((c.cx + c.w/2) * xFactor)
	y2 := int((c.cy + c.h/2) * yFactor)
	return image.Rect(x1, y1, x2, y2)
}

// decodeOutput reads a [1, 4+classes, N] output tensor, or its transposed
// [1, N, 4+classes] form, keeping the best class of each prediction when its
// score reaches threshold.
func decodeOutput(data []float32, dims []int, threshold float32) ([]candidate, error) {
	if len(dims) != 3 || dims[0] != 1 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	attrs, count := dims[1], dims[2]
	transposed := false
	if attrs > count {
		attrs, count = count, attrs
		transposed = true
	}
	if attrs < 5 {
		return nil, fmt.Errorf("output shape %v has no class scores", dims)
	}
	if len(data) < attrs*count {
		return nil, fmt.Errorf("output has %d values, shape %v needs %d", len(data), dims, attrs*count)
	}

	at := func(attr, i int) float32 {
		if transposed {
			return data[i*attrs+attr]
		}
		return data[attr*count+i]
	}

	var candidates []candidate
	for i := 0; i < count; i++ {
		best, bestScore := -1, float32(0)
		for cls := 0; cls < attrs-4; cls++ {
			if score := at(4+cls, i); score > bestScore {
				best, bestScore = cls, score
			}
		}
		if best < 0 || bestScore < threshold {
			continue
		}
		candidates = append(candidates, candidate{
			classID: best,
			score:   bestScore,
			cx:      at(0, i),
			cy:      at(1, i),
			w:       at(2, i),
			h:       at(3, i),
		})
	}
	return candidates, nil
}

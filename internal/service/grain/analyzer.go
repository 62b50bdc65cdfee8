package grain

import (
	"gocv.io/x/gocv"

	"riceinspector/internal/config"
	"riceinspector/internal/dto"
	"riceinspector/internal/logger"
	"riceinspector/internal/model"
)

// Analysis is the result of one frame: the validated grains and their statistics.
type Analysis struct {
	Grains []model.Grain
	Stats  model.FrameStatistics
}

// Analyzer runs the per-frame pipeline: area filter, label mapping, grain
// separation, length estimation and aggregation.
type Analyzer struct {
	cfg       config.PipelineConfig
	filters   []Postprocessor
	separator *Separator
	estimator LengthEstimator
	logger    *logger.Logger

	unknownLabels map[string]bool
}

// NewAnalyzer creates an Analyzer for the given calibration. Extra
// postprocessors run after the area filter.
func NewAnalyzer(cfg config.PipelineConfig, logger *logger.Logger, extra ...Postprocessor) *Analyzer {
	filters := append([]Postprocessor{NewAreaFilter(cfg.MinGrainArea, cfg.MaxGrainArea)}, extra...)
	return &Analyzer{
		cfg:           cfg,
		filters:       filters,
		separator:     NewSeparator(),
		estimator:     NewLengthEstimator(cfg.PixelsPerMM),
		logger:        logger,
		unknownLabels: make(map[string]bool),
	}
}

// Close releases the separator's resources.
func (a *Analyzer) Close() error {
	return a.separator.Close()
}

// Analyze processes the detections of one frame. Geometry failures only remove
// a grain from the length statistics; it is still counted. Detections with a
// label outside the known classes are not counted but their length still
// enters the average.
func (a *Analyzer) Analyze(frame gocv.Mat, detections []dto.DetectionResult) Analysis {
	valid := detections
	for _, filter := range a.filters {
		valid = filter(valid)
	}

	grains := make([]model.Grain, 0, len(valid))
	var lengths []float64
	for _, det := range valid {
		class := model.ClassifyLabel(det.Label)
		box := det.Rect()
		if class == model.Unclassified {
			if !a.unknownLabels[det.Label] {
				a.unknownLabels[det.Label] = true
				a.logger.Warning("Detections with unrecognised label %q are measured but not counted", det.Label)
			}
			if silhouette, ok := a.separator.Separate(frame, box); ok {
				px, _ := a.estimator.Estimate(silhouette)
				lengths = append(lengths, px)
			}
			continue
		}

		g := model.Grain{
			Box:        box,
			Label:      det.Label,
			Class:      class,
			Confidence: det.Confidence,
		}
		if class != model.Foreign {
			if silhouette, ok := a.separator.Separate(frame, g.Box); ok {
				g.LengthPx, g.LengthMM = a.estimator.Estimate(silhouette)
				g.Measured = true
				lengths = append(lengths, g.LengthPx)
			}
		}
		grains = append(grains, g)
	}

	return Analysis{
		Grains: grains,
		Stats:  Aggregate(grains, lengths, a.cfg.PixelsPerMM),
	}
}

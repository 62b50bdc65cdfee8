package dto

import (
	"time"

	"riceinspector/internal/model"
)

// LiveStatus is the latest state of the inspection loop.
type LiveStatus struct {
	Running      bool                  `json:"running"`
	Frames       int64                 `json:"frames"`
	UpdatedAt    time.Time             `json:"updatedAt"`
	Stats        model.FrameStatistics `json:"stats"`
	Total        int                   `json:"total"`
	Contaminated bool                  `json:"contaminated"`
	LastReport   *model.ReportRecord   `json:"lastReport,omitempty"`
}

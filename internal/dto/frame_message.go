package dto

import "riceinspector/internal/model"

// FrameMessage is broadcast to dashboard viewers for every processed frame.
type FrameMessage struct {
	Image        string                `json:"image"` // base64 JPEG
	Stats        model.FrameStatistics `json:"stats"`
	Total        int                   `json:"total"`
	Contaminated bool                  `json:"contaminated"`
}

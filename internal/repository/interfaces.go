package repository

import (
	"riceinspector/internal/model"
)

// ReportRepository defines the interface for report data operations.
type ReportRepository interface {
	// Create operations
	Insert(report *model.ReportRecord) (int64, error)

	// Read operations
	GetByID(id int64) (*model.ReportRecord, error)
	GetByImageFile(imageFile string) (*model.ReportRecord, error)
	GetAll(filter *model.ReportFilter) ([]model.ReportRecord, error)
	GetTotalCount(filter *model.ReportFilter) (int, error)
	GetSummary(filter *model.ReportFilter) (*model.ReportSummary, error)

	// Delete operations
	Delete(id int64) error
}

// GrainRepository defines the interface for per-grain data operations.
type GrainRepository interface {
	// Create operations
	InsertBatch(grains []model.GrainRecord) error

	// Read operations
	GetByReportID(reportID int64) ([]model.GrainRecord, error)

	// Delete operations
	DeleteByReportID(reportID int64) error
}

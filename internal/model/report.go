package model

import "time"

// TimestampLayout is the report timestamp format, e.g. 2025-01-04_14-30-00.
const TimestampLayout = "2006-01-02_15-04-05"

// ReportRecord is one persisted report row.
type ReportRecord struct {
	ID             int64     `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Total          int       `json:"total"`
	Whole          int       `json:"whole"`
	Broken         int       `json:"broken"`
	Foreign        int       `json:"foreign"`
	AvgLengthMM    float64   `json:"avg_length_mm"`
	QualityPercent int       `json:"quality_percent"`
	ImageFile      string    `json:"image_file"`
}

// NewReportRecord snapshots frame statistics into a report row.
func NewReportRecord(ts time.Time, stats FrameStatistics, imageFile string) ReportRecord {
	return ReportRecord{
		Timestamp:      ts,
		Total:          stats.Total(),
		Whole:          stats.Whole,
		Broken:         stats.Broken,
		Foreign:        stats.Foreign,
		AvgLengthMM:    stats.AvgLengthMM,
		QualityPercent: stats.QualityPercent,
		ImageFile:      imageFile,
	}
}

// GrainRecord is a persisted grain belonging to a report.
type GrainRecord struct {
	ID         int64    `json:"id"`
	ReportID   int64    `json:"report_id"`
	Class      string   `json:"class"`
	Label      string   `json:"label"`
	X          int      `json:"x"`
	Y          int      `json:"y"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Confidence float64  `json:"confidence"`
	LengthMM   *float64 `json:"length_mm"`
}

// NewGrainRecord converts a validated grain for storage. Unmeasured grains
// have no length.
func NewGrainRecord(reportID int64, g Grain) GrainRecord {
	r := GrainRecord{
		ReportID:   reportID,
		Class:      g.Class.String(),
		Label:      g.Label,
		X:          g.Box.Min.X,
		Y:          g.Box.Min.Y,
		Width:      g.Box.Dx(),
		Height:     g.Box.Dy(),
		Confidence: g.Confidence,
	}
	if g.Measured {
		mm := g.LengthMM
		r.LengthMM = &mm
	}
	return r
}

// ReportFilter contains filtering options for querying reports.
type ReportFilter struct {
	StartDate    time.Time
	EndDate      time.Time
	MinQuality   int
	Contaminated *bool
	Limit        int
	Offset       int
}

// ReportSummary contains aggregate numbers over stored reports.
type ReportSummary struct {
	TotalReports   int     `json:"total_reports"`
	TotalWhole     int     `json:"total_whole"`
	TotalBroken    int     `json:"total_broken"`
	TotalForeign   int     `json:"total_foreign"`
	AvgQuality     float64 `json:"avg_quality"`
	AvgLengthMM    float64 `json:"avg_length_mm"`
	Contaminations int     `json:"contaminations"`
}

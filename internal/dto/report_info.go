package dto

import (
	"encoding/json"
	"time"
)

// ReportInfo represents a stored report as shown in the report list.
type ReportInfo struct {
	ID             int64     `json:"id"`
	Date           time.Time `json:"date"`
	TimeOfDay      time.Time `json:"timeOfDay"`
	Total          int       `json:"total"`
	Whole          int       `json:"whole"`
	Broken         int       `json:"broken"`
	Foreign        int       `json:"foreign"`
	AvgLengthMM    float64   `json:"avgLengthMm"`
	QualityPercent int       `json:"qualityPercent"`
	Image          string    `json:"image"`
}

// MarshalJSON customizes JSON output for ReportInfo to format date and time-of-day.
func (r ReportInfo) MarshalJSON() ([]byte, error) {
	type Alias ReportInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      r.Date.Format("02-01-2006"),
		TimeOfDay: r.TimeOfDay.Format("15:04:05"),
		Alias:     (Alias)(r),
	})
}

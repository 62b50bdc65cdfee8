// ReportsData is a paginated response payload for the report history.
package dto

import "riceinspector/internal/model"

type ReportsData struct {
	Reports     []ReportInfo        `json:"reports"`
	Summary     model.ReportSummary `json:"summary"`
	Length      int                 `json:"length"`
	TotalPages  int                 `json:"totalPages"`
	CurrentPage int                 `json:"currentPage"`
	Limit       int                 `json:"pageSize"`
}

package handler

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"riceinspector/internal/dto"
	"riceinspector/internal/logger"
	"riceinspector/internal/model"
	"riceinspector/internal/repository"
)

// ImageResolver maps a scan image name to its path on disk.
type ImageResolver interface {
	ImagePath(name string) (string, error)
}

// GetReportsHandler returns a filtered, paginated list of saved reports with
// a summary over all matching reports.
func GetReportsHandler(logger *logger.Logger, reportRepo repository.ReportRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := &model.ReportFilter{
			StartDate:    parseDate(q.Get("dateAfter")),
			EndDate:      parseDate(q.Get("dateBefore")),
			MinQuality:   atoiDefault(q.Get("minQuality"), 0),
			Contaminated: parseBool(q.Get("contaminated")),
			Limit:        limit,
			Offset:       (page - 1) * limit,
		}

		reports, err := reportRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying reports from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := reportRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting reports: %v", err)
			totalCount = len(reports)
		}

		summary, err := reportRepo.GetSummary(filter)
		if err != nil {
			logger.Error("Error summarizing reports: %v", err)
			summary = &model.ReportSummary{}
		}

		infos := make([]dto.ReportInfo, 0, len(reports))
		for _, rep := range reports {
			infos = append(infos, dto.ReportInfo{
				ID:             rep.ID,
				Date:           rep.Timestamp,
				TimeOfDay:      rep.Timestamp,
				Total:          rep.Total,
				Whole:          rep.Whole,
				Broken:         rep.Broken,
				Foreign:        rep.Foreign,
				AvgLengthMM:    rep.AvgLengthMM,
				QualityPercent: rep.QualityPercent,
				Image:          rep.ImageFile,
			})
		}

		writeJSON(w, http.StatusOK, dto.ReportsData{
			Reports:     infos,
			Summary:     *summary,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}, logger)
	}
}

// GetReportGrainsHandler returns the grains stored with one report.
func GetReportGrainsHandler(logger *logger.Logger, grainRepo repository.GrainRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Valid report id required", http.StatusBadRequest)
			return
		}

		grains, err := grainRepo.GetByReportID(id)
		if err != nil {
			logger.Error("Error querying grains of report %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, grains, logger)
	}
}

// ViewReportImageHandler serves a saved scan image specified via the "image" query parameter.
func ViewReportImageHandler(images ImageResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		image := r.URL.Query().Get("image")
		if image == "" {
			http.Error(w, "Image parameter is required", http.StatusBadRequest)
			return
		}

		filePath, err := images.ImagePath(image)
		if err != nil {
			http.Error(w, "Invalid image name", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, filePath)
	}
}

// DeleteReportHandler removes a report's image and database rows. The CSV
// log is append-only and keeps the row.
func DeleteReportHandler(logger *logger.Logger, reportRepo repository.ReportRepository,
	grainRepo repository.GrainRepository, images ImageResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Valid report id required", http.StatusBadRequest)
			return
		}

		report, err := reportRepo.GetByID(id)
		if err != nil {
			logger.Error("Error loading report %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if report == nil {
			http.Error(w, "Report not found", http.StatusNotFound)
			return
		}

		if filePath, err := images.ImagePath(report.ImageFile); err == nil {
			if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
				logger.Error("Failed to delete file %s: %v", filePath, err)
			}
		}

		if err := grainRepo.DeleteByReportID(id); err != nil {
			logger.Error("Failed to delete grains of report %d: %v", id, err)
		}
		if err := reportRepo.Delete(id); err != nil {
			logger.Error("Failed to delete report %d: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted report %d (%s)", id, report.ImageFile)
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "deleted", "id": id}, logger)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseBool returns nil for an empty or malformed value.
func parseBool(v string) *bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

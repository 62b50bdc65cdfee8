package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"riceinspector/internal/config"
	"riceinspector/internal/logger"
	"riceinspector/internal/model"
	"riceinspector/internal/repository"
	"riceinspector/internal/service/grain"
)

// maxImageSuffix bounds the search for a free image name within one second.
const maxImageSuffix = 1000

// RecorderService persists inspection reports: the rendered frame as a JPEG
// file, one row in the CSV report log and, when repositories are available,
// a mirror in the report database. The CSV log is the record of truth.
type RecorderService struct {
	reportDir string
	logPath   string
	mu        sync.Mutex
	logger    *logger.Logger
	reports   repository.ReportRepository
	grains    repository.GrainRepository

	now func() time.Time
}

// NewRecorderService prepares the report directory and log.
func NewRecorderService(config *config.Config, logger *logger.Logger, reports repository.ReportRepository, grains repository.GrainRepository) (*RecorderService, error) {
	if err := os.MkdirAll(config.ReportDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := EnsureLog(config.ReportLogPath); err != nil {
		return nil, err
	}

	return &RecorderService{
		reportDir: config.ReportDirectory,
		logPath:   config.ReportLogPath,
		logger:    logger,
		reports:   reports,
		grains:    grains,
		now:       time.Now,
	}, nil
}

// ImageName returns the scan image name for a timestamp.
func ImageName(ts time.Time) string {
	return fmt.Sprintf("rice_scan_%s.jpg", ts.Format(model.TimestampLayout))
}

// createImage creates a new, not yet existing image file. A second save within
// the same second gets a numeric suffix instead of overwriting the first.
func (s *RecorderService) createImage(ts time.Time) (*os.File, string, error) {
	base := strings.TrimSuffix(ImageName(ts), ".jpg")
	for i := 1; i <= maxImageSuffix; i++ {
		name := base + ".jpg"
		if i > 1 {
			name = fmt.Sprintf("%s_%d.jpg", base, i)
		}

		file, err := os.OpenFile(filepath.Join(s.reportDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to create image %s: %w", name, err)
		}
		return file, name, nil
	}
	return nil, "", fmt.Errorf("no free image name for %s", base)
}

// Save writes the JPEG image and its report row. The database mirror is best
// effort: failures there are logged and do not fail the save.
func (s *RecorderService) Save(jpeg []byte, analysis grain.Analysis) (model.ReportRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().Truncate(time.Second)

	file, name, err := s.createImage(ts)
	if err != nil {
		return model.ReportRecord{}, err
	}
	_, err = file.Write(jpeg)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filepath.Join(s.reportDir, name))
		return model.ReportRecord{}, fmt.Errorf("failed to write image %s: %w", name, err)
	}

	record := model.NewReportRecord(ts, analysis.Stats, name)
	if err := AppendRow(s.logPath, record); err != nil {
		if removeErr := os.Remove(filepath.Join(s.reportDir, name)); removeErr != nil {
			s.logger.Error("Failed to remove unlogged image %s: %v", name, removeErr)
		}
		return model.ReportRecord{}, err
	}

	s.mirror(&record, analysis.Grains)

	s.logger.Info("Saved Report: %s (total %d, quality %d%%)", name, record.Total, record.QualityPercent)
	return record, nil
}

func (s *RecorderService) mirror(record *model.ReportRecord, grains []model.Grain) {
	if s.reports == nil {
		return
	}

	id, err := s.reports.Insert(record)
	if err != nil {
		s.logger.Error("Error saving report to database %s: %v", record.ImageFile, err)
		return
	}

	if s.grains == nil || len(grains) == 0 {
		return
	}
	rows := make([]model.GrainRecord, 0, len(grains))
	for _, g := range grains {
		rows = append(rows, model.NewGrainRecord(id, g))
	}
	if err := s.grains.InsertBatch(rows); err != nil {
		s.logger.Error("Error saving grains to database: %v", err)
	}
}

// ImagePath resolves a scan image name inside the report directory. Names
// that would escape the directory are rejected.
func (s *RecorderService) ImagePath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid image name %q", name)
	}
	return filepath.Join(s.reportDir, name), nil
}

// ImportLog copies log rows that are not yet in the database. It returns the
// number of imported rows; rows that fail to parse are reported in the error.
func (s *RecorderService) ImportLog() (int, error) {
	if s.reports == nil {
		return 0, fmt.Errorf("no report database configured")
	}

	records, readErr := ReadLog(s.logPath)
	imported := 0
	for i := range records {
		existing, err := s.reports.GetByImageFile(records[i].ImageFile)
		if err != nil {
			return imported, err
		}
		if existing != nil {
			continue
		}
		if _, err := s.reports.Insert(&records[i]); err != nil {
			return imported, err
		}
		imported++
	}

	if imported > 0 {
		s.logger.Info("Imported %d reports from %s", imported, s.logPath)
	}
	return imported, readErr
}

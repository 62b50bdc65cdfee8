package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"riceinspector/internal/model"
)

const reportColumns = `id, timestamp, total, whole, broken, foreign_count, avg_length_mm, quality_percent, image_file`

// ReportRepository implements repository.ReportRepository for SQLite.
type ReportRepository struct {
	db *DB
}

// NewReportRepository creates a new SQLite report repository.
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row scanner) (model.ReportRecord, error) {
	var (
		r  model.ReportRecord
		ts string
	)
	if err := row.Scan(&r.ID, &ts, &r.Total, &r.Whole, &r.Broken, &r.Foreign, &r.AvgLengthMM, &r.QualityPercent, &r.ImageFile); err != nil {
		return r, err
	}
	parsed, err := time.ParseInLocation(timeLayout, ts, time.Local)
	if err != nil {
		return r, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	r.Timestamp = parsed
	return r, nil
}

// Insert adds a new report record to the database.
func (r *ReportRepository) Insert(report *model.ReportRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO reports (timestamp, total, whole, broken, foreign_count, avg_length_mm, quality_percent, image_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, report.Timestamp.Format(timeLayout), report.Total, report.Whole, report.Broken, report.Foreign,
		report.AvgLengthMM, report.QualityPercent, report.ImageFile)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get report id: %w", err)
	}
	report.ID = id
	return id, nil
}

// GetByID retrieves a report by its ID. It returns nil when none exists.
func (r *ReportRepository) GetByID(id int64) (*model.ReportRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	report, err := scanReport(r.db.Conn().QueryRow(`SELECT `+reportColumns+` FROM reports WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// GetByImageFile retrieves the report that saved the given image.
func (r *ReportRepository) GetByImageFile(imageFile string) (*model.ReportRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	report, err := scanReport(r.db.Conn().QueryRow(`SELECT `+reportColumns+` FROM reports WHERE image_file = ?`, imageFile))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// whereClause builds the shared filter conditions.
func whereClause(filter *model.ReportFilter) (string, []interface{}) {
	query := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if !filter.StartDate.IsZero() {
		query += " AND DATE(timestamp) >= DATE(?)"
		args = append(args, filter.StartDate.Format("2006-01-02"))
	}

	if !filter.EndDate.IsZero() {
		query += " AND DATE(timestamp) <= DATE(?)"
		args = append(args, filter.EndDate.Format("2006-01-02"))
	}

	if filter.MinQuality > 0 {
		query += " AND quality_percent >= ?"
		args = append(args, filter.MinQuality)
	}

	if filter.Contaminated != nil {
		if *filter.Contaminated {
			query += " AND foreign_count > 0"
		} else {
			query += " AND foreign_count = 0"
		}
	}

	return query, args
}

// GetAll retrieves reports based on filter criteria, newest first.
func (r *ReportRepository) GetAll(filter *model.ReportFilter) ([]model.ReportRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	query := `SELECT ` + reportColumns + ` FROM reports` + where + ` ORDER BY timestamp DESC, id DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []model.ReportRecord
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// GetTotalCount returns the total count of reports matching the filter.
func (r *ReportRepository) GetTotalCount(filter *model.ReportFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM reports`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}

	return count, nil
}

// GetSummary aggregates the reports matching the filter. Pagination fields
// are ignored.
func (r *ReportRepository) GetSummary(filter *model.ReportFilter) (*model.ReportSummary, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)

	summary := &model.ReportSummary{}
	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(whole), 0),
			COALESCE(SUM(broken), 0),
			COALESCE(SUM(foreign_count), 0),
			COALESCE(AVG(quality_percent), 0),
			COALESCE(AVG(avg_length_mm), 0),
			COALESCE(SUM(CASE WHEN foreign_count > 0 THEN 1 ELSE 0 END), 0)
		FROM reports`+where, args...).Scan(
		&summary.TotalReports, &summary.TotalWhole, &summary.TotalBroken, &summary.TotalForeign,
		&summary.AvgQuality, &summary.AvgLengthMM, &summary.Contaminations)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize reports: %w", err)
	}

	return summary, nil
}

// Delete removes a report and its grains.
func (r *ReportRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM grains WHERE report_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete grains: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM reports WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return tx.Commit()
}

package sqlite

import (
	"database/sql"
	"fmt"

	"riceinspector/internal/model"
)

// GrainRepository implements repository.GrainRepository for SQLite.
type GrainRepository struct {
	db *DB
}

// NewGrainRepository creates a new SQLite grain repository.
func NewGrainRepository(db *DB) *GrainRepository {
	return &GrainRepository{db: db}
}

// InsertBatch adds multiple grains in a single transaction.
func (r *GrainRepository) InsertBatch(grains []model.GrainRecord) error {
	if len(grains) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO grains (report_id, class, label, x, y, width, height, confidence, length_mm)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, g := range grains {
		var length sql.NullFloat64
		if g.LengthMM != nil {
			length = sql.NullFloat64{Float64: *g.LengthMM, Valid: true}
		}
		if _, err := stmt.Exec(g.ReportID, g.Class, g.Label, g.X, g.Y, g.Width, g.Height, g.Confidence, length); err != nil {
			return fmt.Errorf("failed to insert grain: %w", err)
		}
	}

	return tx.Commit()
}

// GetByReportID retrieves all grains of a report in insertion order.
func (r *GrainRepository) GetByReportID(reportID int64) ([]model.GrainRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, report_id, class, label, x, y, width, height, confidence, length_mm
		FROM grains WHERE report_id = ? ORDER BY id
	`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grains: %w", err)
	}
	defer rows.Close()

	grains := []model.GrainRecord{}
	for rows.Next() {
		var (
			g      model.GrainRecord
			length sql.NullFloat64
		)
		if err := rows.Scan(&g.ID, &g.ReportID, &g.Class, &g.Label, &g.X, &g.Y, &g.Width, &g.Height, &g.Confidence, &length); err != nil {
			return nil, fmt.Errorf("failed to scan grain: %w", err)
		}
		if length.Valid {
			mm := length.Float64
			g.LengthMM = &mm
		}
		grains = append(grains, g)
	}

	return grains, rows.Err()
}

// DeleteByReportID removes all grains of a report.
func (r *GrainRepository) DeleteByReportID(reportID int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM grains WHERE report_id = ?`, reportID); err != nil {
		return fmt.Errorf("failed to delete grains: %w", err)
	}
	return nil
}

package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"riceinspector/internal/model"
)

// LogHeader is the first row of the report log.
var LogHeader = []string{"Timestamp", "Total", "Whole", "Broken", "Foreign", "Avg Length (mm)", "Quality %", "Image File"}

// EnsureLog creates the report log with its header when it does not exist yet.
// An existing log is left as is.
func EnsureLog(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create report log: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(LogHeader); err != nil {
		return fmt.Errorf("failed to write report log header: %w", err)
	}
	w.Flush()
	return w.Error()
}

// AppendRow appends one report to the log, recreating the log with its
// header if it was removed.
func AppendRow(path string, record model.ReportRecord) error {
	if err := EnsureLog(path); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open report log: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(FormatRow(record)); err != nil {
		return fmt.Errorf("failed to write report row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// FormatRow renders a report as a log row.
func FormatRow(r model.ReportRecord) []string {
	return []string{
		r.Timestamp.Format(model.TimestampLayout),
		strconv.Itoa(r.Total),
		strconv.Itoa(r.Whole),
		strconv.Itoa(r.Broken),
		strconv.Itoa(r.Foreign),
		model.FormatLength(r.AvgLengthMM),
		strconv.Itoa(r.QualityPercent) + "%",
		r.ImageFile,
	}
}

// ParseRow is the inverse of FormatRow. Timestamps are read in local time.
func ParseRow(fields []string) (model.ReportRecord, error) {
	var r model.ReportRecord
	if len(fields) != len(LogHeader) {
		return r, fmt.Errorf("expected %d fields, got %d", len(LogHeader), len(fields))
	}

	ts, err := time.ParseInLocation(model.TimestampLayout, fields[0], time.Local)
	if err != nil {
		return r, fmt.Errorf("invalid timestamp %q: %w", fields[0], err)
	}
	r.Timestamp = ts

	ints := []struct {
		dst  *int
		text string
	}{
		{&r.Total, fields[1]},
		{&r.Whole, fields[2]},
		{&r.Broken, fields[3]},
		{&r.Foreign, fields[4]},
		{&r.QualityPercent, strings.TrimSuffix(fields[6], "%")},
	}
	for _, f := range ints {
		n, err := strconv.Atoi(strings.TrimSpace(f.text))
		if err != nil {
			return r, fmt.Errorf("invalid count %q: %w", f.text, err)
		}
		*f.dst = n
	}

	if r.AvgLengthMM, err = strconv.ParseFloat(strings.TrimSpace(fields[5]), 64); err != nil {
		return r, fmt.Errorf("invalid length %q: %w", fields[5], err)
	}

	r.ImageFile = fields[7]
	return r, nil
}

// ReadLog parses every row of the report log. Malformed rows are returned as
// a combined error alongside the rows that parsed.
func ReadLog(path string) ([]model.ReportRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report log: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var (
		records []model.ReportRecord
		errs    []error
	)
	for line := 1; ; line++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return records, fmt.Errorf("failed to read report log: %w", err)
		}
		if line == 1 && len(fields) > 0 && fields[0] == LogHeader[0] {
			continue
		}

		record, err := ParseRow(fields)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		records = append(records, record)
	}

	return records, multierr.Combine(errs...)
}

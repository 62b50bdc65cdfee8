package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"riceinspector/internal/config"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir, MaxLogSizeMB: 1})
	t.Cleanup(func() { l.Close() })
	return l, dir
}

func readLog(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return string(data)
}

func TestLogger_LevelsGoToOwnFiles(t *testing.T) {
	l, dir := newTestLogger(t)

	l.Info("grain count %d", 12)
	l.Warning("queue at %d%%", 90)
	l.Error("camera %s lost", "usb1")
	l.Sync()

	if got := readLog(t, dir, InfoFile); !strings.Contains(got, "grain count 12") {
		t.Errorf("info.log missing entry, got: %q", got)
	}
	if got := readLog(t, dir, WarningFile); !strings.Contains(got, "queue at 90%") || strings.Contains(got, "grain count") {
		t.Errorf("warning.log has unexpected content: %q", got)
	}
	if got := readLog(t, dir, ErrorFile); !strings.Contains(got, "camera usb1 lost") {
		t.Errorf("error.log missing entry, got: %q", got)
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	l, dir := newTestLogger(t)

	l.Error("first failure")
	l.Sync()

	if err := l.CleanLogs(ErrorFile); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}
	if got := readLog(t, dir, ErrorFile); got != "" {
		t.Errorf("Expected empty error.log, got %q", got)
	}

	if err := l.CleanLogs("other.log"); err == nil {
		t.Error("Expected error for unknown log file")
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("discarded %d", 1)
	l.Warning("discarded")
	l.Error("discarded")
	if err := l.Close(); err != nil {
		t.Errorf("Close on nop logger failed: %v", err)
	}
}

package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"riceinspector/internal/config"
)

// Log file names, one per level.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to rotated files and stdout/stderr.
type Logger struct {
	sugar  *zap.SugaredLogger
	logDir string
	files  map[string]*lumberjack.Logger
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	l := &Logger{
		logDir: config.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}
	l.setupCores(config.MaxLogSizeMB)
	return l
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), files: map[string]*lumberjack.Logger{}}
}

// setupCores builds one zap core per level, each writing to its own rotated file
// and to the console.
func (l *Logger) setupCores(maxSizeMB int) {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	only := func(level zapcore.Level) zap.LevelEnablerFunc {
		return func(lvl zapcore.Level) bool { return lvl == level }
	}
	atLeast := func(level zapcore.Level) zap.LevelEnablerFunc {
		return func(lvl zapcore.Level) bool { return lvl >= level }
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stdout), l.openLogFile(InfoFile, maxSizeMB)), only(zapcore.InfoLevel)),
		zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stdout), l.openLogFile(WarningFile, maxSizeMB)), only(zapcore.WarnLevel)),
		zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stderr), l.openLogFile(ErrorFile, maxSizeMB)), atLeast(zapcore.ErrorLevel)),
	)

	l.sugar = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// openLogFile returns a rotating writer for a log file.
func (l *Logger) openLogFile(filename string, maxSizeMB int) zapcore.WriteSyncer {
	writer := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, filename),
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
	}
	l.files[filename] = writer
	return zapcore.AddSync(writer)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	writer, ok := l.files[fileName]
	if !ok {
		return fmt.Errorf("unknown log file: %s", fileName)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	if err := os.Truncate(filepath.Join(l.logDir, fileName), 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to truncate log file: %w", err)
	}

	l.Info("File content has been cleared: %s", fileName)
	return nil
}

// Close releases the underlying log files.
func (l *Logger) Close() error {
	_ = l.sugar.Sync()
	var err error
	for _, writer := range l.files {
		err = multierr.Append(err, writer.Close())
	}
	return err
}

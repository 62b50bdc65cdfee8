package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// PipelineConfig holds the per-frame analysis constants. It is fixed at startup
// and passed by value to every pipeline component.
type PipelineConfig struct {
	ConfThreshold float64 // minimum detector confidence
	NMSThreshold  float64 // IoU threshold for non-maximum suppression
	InputSize     int     // square network input size in pixels
	PixelsPerMM   float64 // calibration factor, pixels per millimetre
	MinGrainArea  int     // smallest accepted box area in pixels
	MaxGrainArea  int     // largest accepted box area in pixels
}

// DefaultPipelineConfig returns the calibrated values used on the inspection rig.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ConfThreshold: 0.55,
		NMSThreshold:  0.45,
		InputSize:     640,
		PixelsPerMM:   4.0,
		MinGrainArea:  100,
		MaxGrainArea:  5000,
	}
}

type Config struct {
	Port          int
	Password      string
	ModelPath     string
	LabelsPath    string
	CameraIndices []int  // device indices probed in order
	CameraURI     string // file or stream URI, overrides device probing
	CamerasPort   int    // UDP port for JPEG cameras, 0 disables
	CameraTimeout int    // seconds without a UDP frame before the stream ends, 0 waits forever
	FrameWidth    int
	FrameHeight   int
	ShowWindow    bool
	FrameInterval int // milliseconds between frames when running headless

	ReportDirectory string
	ReportLogPath   string
	DatabasePath    string
	StaticDirectory string
	LogDirectory    string
	MaxLogSizeMB    int

	Pipeline PipelineConfig
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	defaults := DefaultPipelineConfig()
	reportDir := getEnv("REPORT_DIR", filepath.Join(".", "reports"))

	return &Config{
		Port:            getEnvAsInt("PORT", 8080),
		Password:        getEnv("PASSWORD", "rice"),
		ModelPath:       getEnv("MODEL_PATH", filepath.Join(".", "models", "best.onnx")),
		LabelsPath:      getEnv("LABELS_PATH", filepath.Join(".", "models", "labels.yaml")),
		CameraIndices:   getEnvAsIntList("CAMERA_INDICES", []int{1, 2, 3}),
		CameraURI:       getEnv("CAMERA_URI", ""),
		CamerasPort:     getEnvAsInt("CAMERAS_PORT", 0),
		CameraTimeout:   getEnvAsInt("CAMERA_TIMEOUT", 10),
		FrameWidth:      getEnvAsInt("FRAME_WIDTH", 640),
		FrameHeight:     getEnvAsInt("FRAME_HEIGHT", 480),
		ShowWindow:      getEnvAsBool("SHOW_WINDOW", true),
		FrameInterval:   getEnvAsInt("FRAME_INTERVAL", 33),
		ReportDirectory: reportDir,
		ReportLogPath:   getEnv("REPORT_LOG", filepath.Join(reportDir, "Rice_Quality_Report.csv")),
		DatabasePath:    getEnv("DB_PATH", filepath.Join(".", "data", "reports.db")),
		StaticDirectory: getEnv("STATIC_DIR", "static"),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),
		MaxLogSizeMB:    getEnvAsInt("MAX_LOG_SIZE_MB", 10),
		Pipeline: PipelineConfig{
			ConfThreshold: getEnvAsFloat("CONF_THRESHOLD", defaults.ConfThreshold),
			NMSThreshold:  getEnvAsFloat("NMS_THRESHOLD", defaults.NMSThreshold),
			InputSize:     getEnvAsInt("INPUT_SIZE", defaults.InputSize),
			PixelsPerMM:   getEnvAsFloat("PIXELS_PER_MM", defaults.PixelsPerMM),
			MinGrainArea:  getEnvAsInt("MIN_GRAIN_AREA", defaults.MinGrainArea),
			MaxGrainArea:  getEnvAsInt("MAX_GRAIN_AREA", defaults.MaxGrainArea),
		},
	}
}

// Validate reports configuration values the pipeline cannot work with.
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if c.CameraURI == "" && c.CamerasPort == 0 && len(c.CameraIndices) == 0 {
		return fmt.Errorf("no video source configured")
	}
	if !c.ShowWindow && c.FrameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive when running headless, got %d", c.FrameInterval)
	}
	return nil
}

func (p PipelineConfig) Validate() error {
	if p.PixelsPerMM <= 0 {
		return fmt.Errorf("pixels per mm must be positive, got %v", p.PixelsPerMM)
	}
	if p.MinGrainArea < 0 || p.MinGrainArea > p.MaxGrainArea {
		return fmt.Errorf("invalid grain area range [%d, %d]", p.MinGrainArea, p.MaxGrainArea)
	}
	if p.ConfThreshold <= 0 || p.ConfThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in (0, 1], got %v", p.ConfThreshold)
	}
	if p.NMSThreshold <= 0 || p.NMSThreshold > 1 {
		return fmt.Errorf("nms threshold must be in (0, 1], got %v", p.NMSThreshold)
	}
	if p.InputSize <= 0 {
		return fmt.Errorf("input size must be positive, got %d", p.InputSize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsIntList parses a comma separated list such as "1,2,3".
// Any malformed entry makes the whole value fall back to the default.
func getEnvAsIntList(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}

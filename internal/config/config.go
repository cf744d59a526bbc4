// Package config loads environment configuration for PadRelay.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultListenAddr      = "0.0.0.0:5555"
	defaultStreamAddr      = "0.0.0.0:5556"
	defaultEditorAddr      = "127.0.0.1:8787"
	defaultDataDir         = "./data"
	defaultFFmpegPath      = "ffmpeg"
	defaultXdotoolPath     = "xdotool"
	defaultCapture         = "gdigrab"
	defaultDisplay         = ":0.0"
	defaultFPS             = 30
	defaultBitrateKbps     = 6000
	defaultMonitorIdx      = 1
	defaultCaptureW        = 1920
	defaultCaptureH        = 1080
	defaultMJPEGQuality    = 60
	defaultAnalogThreshold = 0.3
)

// Config holds runtime configuration values.
type Config struct {
	ListenAddr      string
	StreamAddr      string
	EditorAddr      string
	DataDir         string
	LayoutPath      string
	KeymapPath      string
	FFmpegPath      string
	XdotoolPath     string
	CaptureDriver   string
	Display         string
	FPS             int
	BitrateKbps     int
	MonitorIndex    int
	CaptureW        int
	CaptureH        int
	MJPEGQuality    int
	AnalogThreshold float64
}

// Load reads configuration from ./data/.env and environment variables.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:      defaultListenAddr,
		StreamAddr:      defaultStreamAddr,
		EditorAddr:      defaultEditorAddr,
		DataDir:         defaultDataDir,
		FFmpegPath:      defaultFFmpegPath,
		XdotoolPath:     defaultXdotoolPath,
		CaptureDriver:   defaultCapture,
		Display:         defaultDisplay,
		FPS:             defaultFPS,
		BitrateKbps:     defaultBitrateKbps,
		MonitorIndex:    defaultMonitorIdx,
		CaptureW:        defaultCaptureW,
		CaptureH:        defaultCaptureH,
		MJPEGQuality:    defaultMJPEGQuality,
		AnalogThreshold: defaultAnalogThreshold,
	}

	if err := loadEnvFile(filepath.Join(cfg.DataDir, ".env")); err != nil {
		return Config{}, err
	}

	cfg.ListenAddr = envString("LISTEN_ADDR", cfg.ListenAddr)
	cfg.StreamAddr = envString("STREAM_ADDR", cfg.StreamAddr)
	cfg.EditorAddr = envString("EDITOR_ADDR", cfg.EditorAddr)
	cfg.DataDir = envString("DATA_DIR", cfg.DataDir)
	cfg.LayoutPath = envString("LAYOUT_PATH", filepath.Join(cfg.DataDir, "layout.json"))
	cfg.KeymapPath = envString("KEYMAP_PATH", filepath.Join(cfg.DataDir, "keymap.yaml"))
	cfg.FFmpegPath = envString("FFMPEG_PATH", cfg.FFmpegPath)
	cfg.XdotoolPath = envString("XDOTOOL_PATH", cfg.XdotoolPath)
	cfg.CaptureDriver = normalizeCaptureDriver(envString("CAPTURE_DRIVER", cfg.CaptureDriver))
	cfg.Display = envString("DISPLAY_CAPTURE", cfg.Display)

	fps, err := envInt("FPS", cfg.FPS)
	if err != nil {
		return Config{}, err
	}
	if fps <= 0 {
		return Config{}, errors.New("FPS must be > 0")
	}
	cfg.FPS = fps

	bitrate, err := envInt("BITRATE_KBPS", cfg.BitrateKbps)
	if err != nil {
		return Config{}, err
	}
	if bitrate <= 0 {
		return Config{}, errors.New("BITRATE_KBPS must be > 0")
	}
	cfg.BitrateKbps = bitrate

	monitorIdx, err := envInt("MONITOR_INDEX", cfg.MonitorIndex)
	if err != nil {
		return Config{}, err
	}
	cfg.MonitorIndex = monitorIdx

	captureW, err := envInt("CAPTURE_WIDTH", cfg.CaptureW)
	if err != nil {
		return Config{}, err
	}
	captureH, err := envInt("CAPTURE_HEIGHT", cfg.CaptureH)
	if err != nil {
		return Config{}, err
	}
	if captureW <= 0 || captureH <= 0 {
		return Config{}, errors.New("CAPTURE_WIDTH and CAPTURE_HEIGHT must be > 0")
	}
	cfg.CaptureW = captureW
	cfg.CaptureH = captureH

	quality, err := envInt("MJPEG_QUALITY", cfg.MJPEGQuality)
	if err != nil {
		return Config{}, err
	}
	if quality <= 0 || quality > 100 {
		return Config{}, fmt.Errorf("MJPEG_QUALITY must be 1-100")
	}
	cfg.MJPEGQuality = quality

	threshold, err := envFloat("ANALOG_THRESHOLD", cfg.AnalogThreshold)
	if err != nil {
		return Config{}, err
	}
	if threshold <= 0 || threshold >= 1 {
		return Config{}, errors.New("ANALOG_THRESHOLD must be between 0 and 1")
	}
	cfg.AnalogThreshold = threshold

	return cfg, nil
}

// normalizeCaptureDriver ensures a supported capture driver value.
func normalizeCaptureDriver(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "d3d11grab":
		return "d3d11grab"
	default:
		return "gdigrab"
	}
}

// envString returns an env override when present, otherwise a default.
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt returns an int env override when present, otherwise a default.
func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

// envFloat returns a float env override when present, otherwise a default.
func envFloat(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return value, nil
}

// loadEnvFile loads KEY=VALUE pairs from a .env file.
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return err
			}
		}
	}

	return nil
}

// parseEnvLine parses a single .env line into key/value.
func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	if strings.HasPrefix(line, "export ") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	}
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", false
	}
	value = strings.Trim(value, `"'`)
	return key, value, true
}

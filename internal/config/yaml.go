// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"barvis/internal/fft"
	applog "barvis/internal/log"
	"barvis/internal/visual"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug logging.
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Command   string          `yaml:"-"`         // One-off command instead of a render (e.g. "windows").
	Paths     Paths           `yaml:"-"`         // Set from the command line only.
	Analysis  AnalysisConfig  `yaml:"analysis"`  // Spectrum and bucket settings.
	Video     VideoConfig     `yaml:"video"`     // Frame geometry and output.
	Transport TransportConfig `yaml:"transport"` // Live bucket preview.
	Progress  ProgressConfig  `yaml:"progress"`  // Progress display.
}

// AnalysisConfig holds settings for the rolling window, FFT and buckets.
type AnalysisConfig struct {
	WindowSize  int     `yaml:"window_size"`   // Rolling window length, rounded up to a power of two.
	BucketCount int     `yaml:"bucket_count"`  // Number of logarithmic buckets.
	FreqRangeHz float32 `yaml:"freq_range_hz"` // Frequencies at or above this are dropped.
	FFTWindow   string  `yaml:"fft_window"`    // Window function name ("none", "Hann", ...).
}

// VideoConfig holds settings for rendering and writing frames.
type VideoConfig struct {
	Enabled          bool   `yaml:"enabled"`           // Render frames at all.
	Width            int    `yaml:"width"`             // Frame width in pixels.
	Height           int    `yaml:"height"`            // Frame height in pixels.
	BucketSeparation int    `yaml:"bucket_separation"` // Gap between bars in pixels.
	FPS              int    `yaml:"fps"`               // Output frame rate.
	Style            string `yaml:"style"`             // Bar style ("outline", "solid").
	FramesDir        string `yaml:"frames_dir"`        // Write PNG frames here instead of encoding.
	FFmpegPath       string `yaml:"ffmpeg_path"`       // ffmpeg binary.
	Codec            string `yaml:"codec"`             // ffmpeg video codec for the silent video.
	KeepTemp         bool   `yaml:"keep_temp"`         // Keep the silent video after muxing.
}

// TransportConfig holds settings related to publishing bucket snapshots.
type TransportConfig struct {
	UDPEnabled       bool   `yaml:"udp_enabled"`        // Send bucket packets over UDP.
	UDPTargetAddress string `yaml:"udp_target_address"` // Target address and port (e.g., "127.0.0.1:9090").
	WSEnabled        bool   `yaml:"ws_enabled"`         // Serve buckets to WebSocket clients.
	WSAddress        string `yaml:"ws_address"`         // Listen address for the WebSocket server.
	LogEnabled       bool   `yaml:"log_enabled"`        // Log every snapshot at debug level.
}

// ProgressConfig selects how progress is shown.
type ProgressConfig struct {
	Mode string `yaml:"mode"` // "bar", "tui" or "none".
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Analysis: AnalysisConfig{
			WindowSize:  DefaultWindowSize,
			BucketCount: DefaultBucketCount,
			FreqRangeHz: DefaultFreqRangeHz,
			FFTWindow:   DefaultFFTWindow,
		},
		Video: VideoConfig{
			Enabled:          true,
			Width:            DefaultWidth,
			Height:           DefaultHeight,
			BucketSeparation: DefaultBucketSeparation,
			FPS:              DefaultFPS,
			Style:            DefaultStyle,
			FFmpegPath:       DefaultFFmpegPath,
			Codec:            DefaultCodec,
		},
		Transport: TransportConfig{
			UDPTargetAddress: DefaultUDPTargetAddress,
			WSAddress:        DefaultWSAddress,
		},
		Progress: ProgressConfig{Mode: DefaultProgressMode},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range []string{"config.yaml", "barvis.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("Config: Loaded %s", path)
	}

	// Environment overrides win over the file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level '%s' is not a known level", c.LogLevel)
	}

	// Analysis Validation
	a := c.Analysis
	if a.WindowSize < 1 || a.WindowSize > MaxWindowSize {
		return fmt.Errorf("analysis.window_size must be in [1, %d], got %d", MaxWindowSize, a.WindowSize)
	}
	if a.BucketCount < 1 {
		return fmt.Errorf("analysis.bucket_count must be positive, got %d", a.BucketCount)
	}
	if !(a.FreqRangeHz > 1) {
		return fmt.Errorf("analysis.freq_range_hz must exceed 1 Hz, got %v", a.FreqRangeHz)
	}
	if _, err := fft.ParseWindowFunc(a.FFTWindow); err != nil {
		return fmt.Errorf("analysis.fft_window: %w", err)
	}

	// Video Validation
	v := c.Video
	if v.FPS < 1 || v.FPS > MaxFPS {
		return fmt.Errorf("video.fps must be in [1, %d], got %d", MaxFPS, v.FPS)
	}
	if v.Enabled {
		if _, err := c.VisualConfig().BarWidth(a.BucketCount); err != nil {
			return fmt.Errorf("video: %w", err)
		}
		if _, err := visual.ParseStyle(v.Style); err != nil {
			return fmt.Errorf("video.style: %w", err)
		}
		if v.FramesDir == "" && (v.FFmpegPath == "" || v.Codec == "") {
			return fmt.Errorf("video.ffmpeg_path and video.codec must be set when encoding")
		}
	}

	// Transport Validation
	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			return fmt.Errorf("transport.udp_target_address '%s' appears invalid (missing port?)", c.Transport.UDPTargetAddress)
		}
	}
	if c.Transport.WSEnabled && !strings.Contains(c.Transport.WSAddress, ":") {
		return fmt.Errorf("transport.ws_address '%s' appears invalid (missing port?)", c.Transport.WSAddress)
	}

	switch c.Progress.Mode {
	case ProgressBar, ProgressTUI, ProgressNone:
	default:
		return fmt.Errorf("progress.mode must be one of bar, tui, none; got '%s'", c.Progress.Mode)
	}
	return nil
}

// VisualConfig returns the frame geometry.
func (c *Config) VisualConfig() visual.Config {
	return visual.Config{
		Width:            c.Video.Width,
		Height:           c.Video.Height,
		BucketSeparation: c.Video.BucketSeparation,
	}
}

// Level returns the effective log level; Debug forces LevelDebug.
func (c *Config) Level() applog.LogLevel {
	if c.Debug {
		return applog.LevelDebug
	}
	level, _ := applog.ParseLevel(c.LogLevel)
	return level
}

// applyEnvOverrides applies ENV_* variables on top of the loaded values.
// Unparsable values are ignored.
func (cfg *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.

	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			applog.Infof("Config: Overriding debug from env: %v", bVal)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Infof("Config: Overriding log_level from env: %s", val)
	}

	// ENV_FFT_WINDOW
	if val, ok := os.LookupEnv("ENV_FFT_WINDOW"); ok {
		cfg.Analysis.FFTWindow = val
		applog.Infof("Config: Overriding analysis.fft_window from env: %s", val)
	}
	// ENV_FFMPEG_PATH
	if val, ok := os.LookupEnv("ENV_FFMPEG_PATH"); ok {
		cfg.Video.FFmpegPath = val
		applog.Infof("Config: Overriding video.ffmpeg_path from env: %s", val)
	}

	// ENV_UDP_{...}
	// These are specific to the transport layer.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			applog.Infof("Config: Overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		applog.Infof("Config: Overriding transport.udp_target_address from env: %s", val)
	}
	// ENV_WS_ENABLED
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WSEnabled = bVal
			applog.Infof("Config: Overriding transport.ws_enabled from env: %v", bVal)
		}
	}
	// ENV_WS_ADDRESS
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		cfg.Transport.WSAddress = val
		applog.Infof("Config: Overriding transport.ws_address from env: %s", val)
	}
}

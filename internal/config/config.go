package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/hoopreel/internal/motion"
	"github.com/kikiluvv/hoopreel/pkg/util"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	WorkDir string `yaml:"work_dir"`
	TempDir string `yaml:"temp_dir"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Motion detector settings
	Detector DetectorConfig `yaml:"detector"`

	// Export settings
	Export ExportConfig `yaml:"export"`

	// Run store settings
	Store StoreConfig `yaml:"store"`
}

type FFmpegConfig struct {
	BinaryPath  string `yaml:"binary_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	Threads     int    `yaml:"threads"`
	Preset      string `yaml:"preset"`
	CRF         int    `yaml:"crf"`
}

type DetectorConfig struct {
	SampleRateHz       float64         `yaml:"sample_rate_hz"`
	MinGap             time.Duration   `yaml:"min_gap"`
	SeekTimeout        time.Duration   `yaml:"seek_timeout"`
	SlowFrameThreshold time.Duration   `yaml:"slow_frame_threshold"`
	MaxSlowRetries     int             `yaml:"max_slow_retries"`
	AnalysisWidth      int             `yaml:"analysis_width"`
	AnalysisHeight     int             `yaml:"analysis_height"`
	Regions            []motion.Region `yaml:"regions"`
}

type ExportConfig struct {
	LeadIn     time.Duration `yaml:"lead_in"`
	ClipLength time.Duration `yaml:"clip_length"`
	Overlay    bool          `yaml:"overlay"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := util.EnsureDir(dir); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks values the detector and exporter cannot work with
func (c *Config) Validate() error {
	d := c.Detector
	if d.SampleRateHz <= 0 {
		return fmt.Errorf("detector.sample_rate_hz must be positive, got %v", d.SampleRateHz)
	}
	if d.MinGap < 0 {
		return fmt.Errorf("detector.min_gap must not be negative")
	}
	if d.MaxSlowRetries < 0 {
		return fmt.Errorf("detector.max_slow_retries must not be negative")
	}
	if err := motion.ValidateRegions(d.Regions); err != nil {
		return fmt.Errorf("detector.regions: %w", err)
	}
	if c.Export.ClipLength <= 0 {
		return fmt.Errorf("export.clip_length must be positive")
	}
	if c.Export.LeadIn < 0 {
		return fmt.Errorf("export.lead_in must not be negative")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		WorkDir: "./work",
		TempDir: "",
		FFmpeg: FFmpegConfig{
			Threads: 0,
			Preset:  "ultrafast",
			CRF:     23,
		},
		Detector: DetectorConfig{
			SampleRateHz:       3,
			MinGap:             3 * time.Second,
			SeekTimeout:        5 * time.Second,
			SlowFrameThreshold: 1500 * time.Millisecond,
			MaxSlowRetries:     3,
			AnalysisWidth:      320,
			AnalysisHeight:     180,
		},
		Export: ExportConfig{
			LeadIn:     3 * time.Second,
			ClipLength: 4 * time.Second,
			Overlay:    true,
		},
		Store: StoreConfig{
			Path: filepath.Join("./work", "hoopreel.db"),
		},
	}
}

// Default returns the built-in configuration
func Default() *Config {
	return defaultConfig()
}

func findConfigFile() string {
	candidates := []string{
		"./hoopreel.yaml",
		"./hoopreel.yml",
		filepath.Join(os.Getenv("HOME"), ".hoopreel", "config.yaml"),
	}

	for _, path := range candidates {
		if util.FileExists(path) {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}

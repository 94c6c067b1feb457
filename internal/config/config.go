// Package config loads application configuration from environment variables
// (prefix INSIGHTGEN) merged over an optional config.yaml, environment
// taking precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Upload   UploadConfig   `yaml:"upload" envconfig:"UPLOAD"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// AnalysisConfig contains the analyzer tuning knobs. The significance level
// for correlation tests is fixed at 0.05 and is deliberately not
// configurable.
type AnalysisConfig struct {
	ZScoreThreshold   float64 `yaml:"z_score_threshold" envconfig:"Z_SCORE_THRESHOLD"`
	LookbackDays      int     `yaml:"lookback_days" envconfig:"LOOKBACK_DAYS"`
	StrongCorrelation float64 `yaml:"strong_correlation" envconfig:"STRONG_CORRELATION"`
	StrengthCutoff    float64 `yaml:"strength_cutoff" envconfig:"STRENGTH_CUTOFF"`
	WeaknessCutoff    float64 `yaml:"weakness_cutoff" envconfig:"WEAKNESS_CUTOFF"`
}

// UploadConfig contains ingestion and report storage configuration.
type UploadConfig struct {
	MaxSizeBytes   int64  `yaml:"max_size_bytes" envconfig:"MAX_SIZE_BYTES"`
	ReportsDir     string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	BenchmarksFile string `yaml:"benchmarks_file" envconfig:"BENCHMARKS_FILE"`
}

const configFile = "config.yaml"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Analysis: AnalysisConfig{
			ZScoreThreshold:   2.0,
			LookbackDays:      7,
			StrongCorrelation: 0.6,
			StrengthCutoff:    10,
			WeaknessCutoff:    -10,
		},
		Upload: UploadConfig{
			MaxSizeBytes:   10 << 20,
			ReportsDir:     "reports",
			BenchmarksFile: "benchmarks/industry_benchmarks.json",
		},
	}
}

// Load builds configuration by layering the optional config file over the
// defaults, then environment variables over both.
func Load() (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(configFile); err == nil {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := envconfig.Process("INSIGHTGEN", cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Analysis.ZScoreThreshold <= 0 {
		return fmt.Errorf("z-score threshold must be positive, got %g", c.Analysis.ZScoreThreshold)
	}
	if c.Analysis.LookbackDays <= 0 {
		return fmt.Errorf("lookback days must be positive, got %d", c.Analysis.LookbackDays)
	}
	if c.Analysis.StrongCorrelation <= 0 || c.Analysis.StrongCorrelation > 1 {
		return fmt.Errorf("strong correlation threshold must be in (0,1], got %g", c.Analysis.StrongCorrelation)
	}
	if c.Analysis.StrengthCutoff <= 0 {
		return fmt.Errorf("strength cutoff must be positive, got %g", c.Analysis.StrengthCutoff)
	}
	if c.Analysis.WeaknessCutoff >= 0 {
		return fmt.Errorf("weakness cutoff must be negative, got %g", c.Analysis.WeaknessCutoff)
	}
	if c.Upload.MaxSizeBytes <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.Upload.MaxSizeBytes)
	}
	return nil
}

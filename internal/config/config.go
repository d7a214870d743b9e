package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dialert/internal/logging"
	"dialert/internal/predict"
	"dialert/internal/report"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "dialert.yaml"

// Config holds all dialert configuration.
type Config struct {
	// External model invocation
	Predictor PredictorConfig `yaml:"predictor"`

	// Result record and report
	Output OutputConfig `yaml:"output"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// PredictorConfig configures the external prediction process.
type PredictorConfig struct {
	Binary           string   `yaml:"binary"`
	Args             []string `yaml:"args"`
	WorkingDirectory string   `yaml:"working_directory"`
	// Timeout is a Go duration. Empty waits for the model indefinitely.
	Timeout string `yaml:"timeout"`
}

// OutputConfig configures what a run leaves behind.
type OutputConfig struct {
	RecordPath   string `yaml:"record_path"`
	ReportFormat string `yaml:"report_format"` // plain, markdown
	// Viewer is the file or URL opened by --open. Empty opens the record.
	Viewer string `yaml:"viewer"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	opts := predict.DefaultOptions()
	return &Config{
		Predictor: PredictorConfig{
			Binary: opts.Binary,
			Args:   opts.Args,
		},
		Output: OutputConfig{
			RecordPath:   "result.txt",
			ReportFormat: string(report.FormatPlain),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// LoadDotEnv loads a .env file into the process environment. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from path. A missing file yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Marshal returns the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// applyEnvOverrides applies the DIALERT_* variables:
//
//	DIALERT_PREDICTOR_BINARY   predictor.binary
//	DIALERT_PREDICTOR_ARGS     predictor.args, split on whitespace
//	DIALERT_PREDICTOR_DIR      predictor.working_directory
//	DIALERT_PREDICTOR_TIMEOUT  predictor.timeout
//	DIALERT_RECORD_PATH        output.record_path
//	DIALERT_REPORT_FORMAT      output.report_format
//	DIALERT_LOG_LEVEL          logging.level
//
// DIALERT_PREDICTOR_ARGS has no quoting; arguments containing spaces must be
// set through predictor.args in the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DIALERT_PREDICTOR_BINARY"); v != "" {
		c.Predictor.Binary = v
	}
	if v := os.Getenv("DIALERT_PREDICTOR_ARGS"); v != "" {
		c.Predictor.Args = strings.Fields(v)
	}
	if v := os.Getenv("DIALERT_PREDICTOR_DIR"); v != "" {
		c.Predictor.WorkingDirectory = v
	}
	if v := os.Getenv("DIALERT_PREDICTOR_TIMEOUT"); v != "" {
		c.Predictor.Timeout = v
	}
	if v := os.Getenv("DIALERT_RECORD_PATH"); v != "" {
		c.Output.RecordPath = v
	}
	if v := os.Getenv("DIALERT_REPORT_FORMAT"); v != "" {
		c.Output.ReportFormat = v
	}
	if v := os.Getenv("DIALERT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// GetPredictorTimeout returns the predictor timeout; zero means none.
func (c *Config) GetPredictorTimeout() time.Duration {
	if c.Predictor.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Predictor.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// PredictorOptions converts the predictor section for predict.NewProcessPredictor.
func (c *Config) PredictorOptions() predict.Options {
	return predict.Options{
		Binary:           c.Predictor.Binary,
		Args:             append([]string(nil), c.Predictor.Args...),
		WorkingDirectory: c.Predictor.WorkingDirectory,
		Timeout:          c.GetPredictorTimeout(),
	}
}

// ViewerTarget is what --open launches.
func (c *Config) ViewerTarget() string {
	if c.Output.Viewer != "" {
		return c.Output.Viewer
	}
	return c.Output.RecordPath
}

// Validate checks the configuration for values that would fail at run time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Predictor.Binary) == "" {
		return fmt.Errorf("predictor.binary is required")
	}
	if c.Predictor.Timeout != "" {
		d, err := time.ParseDuration(c.Predictor.Timeout)
		if err != nil {
			return fmt.Errorf("predictor.timeout: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("predictor.timeout must not be negative")
		}
	}
	if strings.TrimSpace(c.Output.RecordPath) == "" {
		return fmt.Errorf("output.record_path is required")
	}
	if _, err := report.ParseFormat(c.Output.ReportFormat); err != nil {
		return fmt.Errorf("output.report_format: %w", err)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}

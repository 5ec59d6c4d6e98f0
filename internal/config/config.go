// Package config loads the YAML configuration shared by the form, the CLI
// and batch mode. A missing file yields the defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"raw-image-processor/internal/params"
)

// Encoder backends
const (
	EncoderOpenCV = "opencv"
	EncoderVips   = "vips"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Defaults are the slider values the form starts from and Reset restores
	Defaults params.SliderState `yaml:"defaults"`

	Decoder DecoderConfig `yaml:"decoder"`
	Encoder EncoderConfig `yaml:"encoder"`

	Processing struct {
		// Workers bounds concurrent files in batch mode
		Workers int `yaml:"workers"`

		// OutputSuffix is appended to the input stem for default output names
		OutputSuffix string `yaml:"outputSuffix"`
	} `yaml:"processing"`

	Logging struct {
		Debug bool `yaml:"debug"`
	} `yaml:"logging"`

	Tracing TracingConfig `yaml:"tracing"`

	Metrics struct {
		// Textfile, when set, receives Prometheus metrics after each run
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
}

// DecoderConfig selects the external RAW developer
type DecoderConfig struct {
	// Command must write a TIFF of the developed image to stdout
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout"`
}

// EncoderConfig selects the JPEG codec
type EncoderConfig struct {
	Backend       string `yaml:"backend"`
	StripMetadata bool   `yaml:"stripMetadata"`
}

// TracingConfig mirrors telemetry.TraceConfig
type TracingConfig struct {
	Exporter     string `yaml:"exporter"`
	OTLPEndpoint string `yaml:"otlpEndpoint"`
	OTLPInsecure bool   `yaml:"otlpInsecure"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Defaults = params.DefaultSliders()

	// dcraw: -c stdout, -w camera white balance, -T TIFF
	cfg.Decoder.Command = "dcraw"
	cfg.Decoder.Args = []string{"-c", "-w", "-T"}
	cfg.Decoder.Timeout = 2 * time.Minute

	cfg.Encoder.Backend = EncoderOpenCV

	cfg.Processing.Workers = max(1, runtime.NumCPU()/2)
	cfg.Processing.OutputSuffix = "_processed"

	cfg.Tracing.Exporter = "none"

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

// Validate checks values the YAML decoder cannot
func (c *Config) Validate() error {
	if c.Defaults != c.Defaults.Clamp() {
		return fmt.Errorf("defaults outside slider ranges: %+v", c.Defaults)
	}

	if strings.TrimSpace(c.Decoder.Command) == "" {
		return fmt.Errorf("decoder.command is required")
	}
	if c.Decoder.Timeout < 0 {
		return fmt.Errorf("decoder.timeout must not be negative")
	}

	switch c.Encoder.Backend {
	case EncoderOpenCV, EncoderVips:
	default:
		return fmt.Errorf("unsupported encoder backend: %q", c.Encoder.Backend)
	}

	if c.Processing.Workers < 1 {
		return fmt.Errorf("processing.workers must be at least 1")
	}

	switch strings.ToLower(c.Tracing.Exporter) {
	case "", "none", "stdout":
	case "otlp":
		if c.Tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlpEndpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("unsupported trace exporter: %q", c.Tracing.Exporter)
	}

	return nil
}

package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	rlog "rackinv/internal/log"
)

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
	Source bool   `yaml:"source"`
}

// Config is the optional YAML settings file. Environment variables
// override whatever the file says.
type Config struct {
	StorePath string        `yaml:"store_path"`
	ExportDir string        `yaml:"export_dir"`
	Color     string        `yaml:"color"` // auto | always | never
	Logging   LoggingConfig `yaml:"logging"`
}

const (
	EnvConfig    = "RACKINV_CONFIG"
	EnvStorePath = "RACKINV_STORE"
	EnvExportDir = "RACKINV_EXPORT_DIR"
	EnvColor     = "RACKINV_COLOR"
)

// DefaultConfigPath is where `rackinv config init` writes when no path is given.
const DefaultConfigPath = "rackinv.yaml"

func Defaults() Config {
	return Config{
		StorePath: "servers.json",
		Color:     "auto",
		Logging:   LoggingConfig{Level: "warn", Format: "console"},
	}
}

// LoadConfig reads path (if non-empty and present), fills unset fields with
// defaults and applies environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	fillDefaults(&c)
	applyEnvOverrides(&c)
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveConfig writes c to path as YAML, readable only by the owner.
func SaveConfig(path string, c *Config) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

// LogOptions converts the logging section for log.Init.
func (c *Config) LogOptions() rlog.Options {
	return rlog.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		File:      c.Logging.File,
		AddSource: c.Logging.Source,
	}
}

func fillDefaults(c *Config) {
	d := Defaults()
	if strings.TrimSpace(c.StorePath) == "" {
		c.StorePath = d.StorePath
	}
	if strings.TrimSpace(c.Color) == "" {
		c.Color = d.Color
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = d.Logging.Level
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = d.Logging.Format
	}
	c.Color = strings.ToLower(strings.TrimSpace(c.Color))
}

func applyEnvOverrides(c *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvStorePath)); v != "" {
		c.StorePath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportDir)); v != "" {
		c.ExportDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvColor)); v != "" {
		c.Color = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(rlog.EnvLogLevel)); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(rlog.EnvLogFormat)); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(rlog.EnvLogFile)); v != "" {
		c.Logging.File = v
	}
	if v := strings.TrimSpace(os.Getenv(rlog.EnvLogSource)); v != "" {
		c.Logging.Source = rlog.ParseBool(v)
	}
}

func (c *Config) validate() error {
	switch c.Color {
	case "auto", "always", "never":
		return nil
	}
	return fmt.Errorf("invalid color mode %q (want auto, always or never)", c.Color)
}

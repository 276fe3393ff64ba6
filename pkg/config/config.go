// Package config reads the analyzer's YAML settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sdelicata/rekordbox-analyzer/pkg/analysis"
	"github.com/sdelicata/rekordbox-analyzer/pkg/logging"
)

// Config holds every tunable setting. Zero-valued sections are filled from Default.
type Config struct {
	Server   Server          `yaml:"server"`
	Sessions Sessions        `yaml:"sessions"`
	Report   analysis.Limits `yaml:"report"`
	Log      Log             `yaml:"log"`
	Audit    Audit           `yaml:"audit"`
}

type Server struct {
	Listen          string        `yaml:"listen"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Sessions struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Audit struct {
	Workers int `yaml:"workers"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Listen:          ":8080",
			MaxUploadBytes:  200 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Sessions: Sessions{
			TTL:        time.Hour,
			MaxEntries: 64,
		},
		Report: analysis.DefaultLimits(),
		Log: Log{
			Level:  "info",
			Format: string(logging.Console),
		},
		Audit: Audit{
			Workers: 16,
		},
	}
}

// Load reads settings from path on top of Default. An empty path or a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	return loadFrom(path)
}

func loadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return errors.New("server.listen is empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be positive")
	}
	if c.Server.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must not be negative")
	}
	if c.Sessions.TTL <= 0 {
		return errors.New("sessions.ttl must be positive")
	}
	if c.Sessions.MaxEntries < 1 {
		return errors.New("sessions.max_entries must be at least 1")
	}
	if c.Report.BPMBins < 1 {
		return errors.New("report.bpm_bins must be at least 1")
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	if c.Audit.Workers < 1 {
		return errors.New("audit.workers must be at least 1")
	}
	return nil
}

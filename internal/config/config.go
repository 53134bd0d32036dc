package config

import (
	"fmt"
	"os"
	"time"

	"blackbox/internal/engine"
	"blackbox/internal/features"
	"blackbox/models"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// DataConfig points the run at its market-data source and universe.
type DataConfig struct {
	DatabaseURL string   `yaml:"database_url"`
	Universe    []string `yaml:"universe"`
	Start       string   `yaml:"start"`
	End         string   `yaml:"end"`
}

// FileConfig is the full run configuration loaded from one YAML file.
type FileConfig struct {
	Backtest engine.Config   `yaml:"backtest"`
	Data     DataConfig      `yaml:"data"`
	Features []features.Spec `yaml:"features"`
	Models   models.Config   `yaml:"models"`
}

// Load reads and validates a run configuration. Backtest knobs missing from
// the file keep their defaults.
func Load(path string) (*FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &FileConfig{Backtest: engine.DefaultConfig()}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *FileConfig) Validate() error {
	if err := c.Backtest.Validate(); err != nil {
		return err
	}
	if len(c.Data.Universe) == 0 {
		return fmt.Errorf("data.universe must name at least one ticker")
	}
	if len(c.Features) == 0 {
		return fmt.Errorf("features must name at least one indicator")
	}
	start, err := c.StartDate()
	if err != nil {
		return err
	}
	end, err := c.EndDate()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("data.end %s must be after data.start %s", c.Data.End, c.Data.Start)
	}
	return nil
}

func (c *FileConfig) StartDate() (time.Time, error) {
	return parseDate("data.start", c.Data.Start)
}

func (c *FileConfig) EndDate() (time.Time, error) {
	return parseDate("data.end", c.Data.End)
}

// DatabaseURL prefers the config file value and falls back to the
// DATABASE_URL environment variable.
func (c *FileConfig) DatabaseURL() (string, error) {
	if c.Data.DatabaseURL != "" {
		return c.Data.DatabaseURL, nil
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("no database URL: set data.database_url or DATABASE_URL")
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required (format %s)", field, dateLayout)
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}

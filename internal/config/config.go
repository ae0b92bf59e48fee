// Package config loads service and CLI settings from defaults, an optional
// JSON5 file with a local override, and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"

	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/ingest/dozer"
	"github.com/fortuna/brutalball/internal/scrape"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "brutalball.json5"

// Config is the merged configuration.
type Config struct {
	DatabaseURL string `json:"database_url"`
	RedisURL    string `json:"redis_url"`
	Port        string `json:"port"`

	// Host is the league site root.
	Host       string `json:"host"`
	UseBrowser bool   `json:"use_browser"`
	OutDir     string `json:"out_dir"`

	Workers     int `json:"workers"`
	PauseMillis int `json:"pause_ms"`
	// IntervalMillis spaces consecutive HTTP requests.
	IntervalMillis int    `json:"request_interval_ms"`
	Variant        string `json:"injury_variant"`

	// RefreshInterval is a Go duration; "0" disables the scheduler.
	RefreshInterval string   `json:"refresh_interval"`
	RefreshPages    []string `json:"refresh_pages"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		RedisURL:        "redis://localhost:6379",
		Port:            "8080",
		Host:            dozer.BaseURL,
		OutDir:          "out",
		Workers:         scrape.DefaultWorkers,
		PauseMillis:     int(scrape.DefaultPause / time.Millisecond),
		IntervalMillis:  int(dozer.DefaultInterval / time.Millisecond),
		Variant:         extract.FastIdx.String(),
		RefreshInterval: "6h",
		RefreshPages:    []string{"teams", "players", "game_results", "injuries"},
	}
}

// Load merges DefaultConfig, the file at path (and its .local sibling) and the
// environment. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultFile
	}

	file, err := ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := mergo.Merge(&cfg, file, mergo.WithOverride); err != nil {
			return cfg, fmt.Errorf("merge config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// ReadFile reads name and, when present, name.local.ext over it. It returns
// os.ErrNotExist when neither file exists.
func ReadFile(name string) (Config, error) {
	var out Config
	found := false

	data, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(data) > 0 {
		if err := json5.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("%s: %w", name, err)
		}
		found = true
	}

	local := localName(name)
	data, err = os.ReadFile(local)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(data) > 0 {
		var override Config
		if err := json5.Unmarshal(data, &override); err != nil {
			return out, fmt.Errorf("%s: %w", local, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

func localName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func applyEnv(cfg *Config) {
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Host = getEnv("BRUTALBALL_HOST", cfg.Host)
	cfg.OutDir = getEnv("BRUTALBALL_OUT_DIR", cfg.OutDir)
	cfg.RefreshInterval = getEnv("REFRESH_INTERVAL", cfg.RefreshInterval)
	if v := getEnv("BRUTALBALL_WORKERS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate checks values that are parsed lazily.
func (c Config) Validate() error {
	if _, err := c.Refresh(); err != nil {
		return err
	}
	if _, err := c.InjuryVariant(); err != nil {
		return err
	}
	if _, err := c.Pages(); err != nil {
		return err
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

// Refresh parses RefreshInterval. Zero disables periodic refresh.
func (c Config) Refresh() (time.Duration, error) {
	if c.RefreshInterval == "" || c.RefreshInterval == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return 0, fmt.Errorf("refresh_interval: %w", err)
	}
	return d, nil
}

// InjuryVariant parses Variant.
func (c Config) InjuryVariant() (extract.Variant, error) {
	for _, v := range extract.Variants {
		if strings.EqualFold(c.Variant, v.String()) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("injury_variant: unknown variant %q", c.Variant)
}

// Pages parses RefreshPages.
func (c Config) Pages() ([]extract.Page, error) {
	out := make([]extract.Page, 0, len(c.RefreshPages))
	for _, s := range c.RefreshPages {
		p, err := extract.ParsePage(s)
		if err != nil {
			return nil, fmt.Errorf("refresh_pages: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// ScrapeConfig derives the runner settings.
func (c Config) ScrapeConfig() scrape.Config {
	v, _ := c.InjuryVariant()
	return scrape.Config{
		Workers: c.Workers,
		Pause:   time.Duration(c.PauseMillis) * time.Millisecond,
		Variant: v,
	}
}

// ClientConfig derives the HTTP client settings.
func (c Config) ClientConfig() dozer.ClientConfig {
	cc := dozer.DefaultClientConfig()
	cc.BaseURL = c.Host
	if c.IntervalMillis > 0 {
		cc.Interval = time.Duration(c.IntervalMillis) * time.Millisecond
	}
	return cc
}

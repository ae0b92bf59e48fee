package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/ingest/dozer"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "brutalball.json5"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	d, err := cfg.Refresh()
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, d)
	assert.Equal(t, dozer.DefaultInterval, cfg.ClientConfig().Interval)
}

func TestLoadMergesLocalAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brutalball.json5")
	writeFile(t, path, `{
		// comments are allowed
		port: "9000",
		workers: 2,
		refresh_pages: ["injuries"],
	}`)
	writeFile(t, filepath.Join(dir, "brutalball.local.json5"), `{workers: 8, injury_variant: "reference"}`)
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("REFRESH_INTERVAL", "0")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, dozer.BaseURL, cfg.Host)

	pages, err := cfg.Pages()
	require.NoError(t, err)
	assert.Equal(t, []extract.Page{extract.PageInjuries}, pages)

	d, err := cfg.Refresh()
	require.NoError(t, err)
	assert.Zero(t, d)
	assert.Equal(t, extract.Reference, cfg.ScrapeConfig().Variant)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brutalball.json5")

	writeFile(t, path, `{injury_variant: "fastest"}`)
	_, err := Load(path)
	assert.Error(t, err)

	writeFile(t, path, `{refresh_interval: "soon"}`)
	_, err = Load(path)
	assert.Error(t, err)

	writeFile(t, path, `{refresh_pages: ["stats"]}`)
	_, err = Load(path)
	assert.Error(t, err)

	writeFile(t, path, `{port: `)
	_, err = Load(path)
	assert.Error(t, err)
}

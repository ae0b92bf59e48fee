package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/brutalball/internal/export"
	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/teams"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisCacheFromClient(client, time.Hour)
}

func TestRedisTableRoundTrip(t *testing.T) {
	mr, rc := newTestRedis(t)
	ctx := context.Background()

	_, err := rc.GetTable(ctx, extract.PageInjuries)
	assert.True(t, errors.Is(err, ErrNotFound))

	b := extract.Bundle{Headers: extract.InjuryHeaders, Rows: [][]string{{"12", "3"}}}
	require.NoError(t, rc.SetTable(ctx, extract.PageInjuries, b))

	got, err := rc.GetTable(ctx, extract.PageInjuries)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	assert.True(t, mr.Exists("brutalball:table:injuries"))
	assert.Equal(t, time.Hour, mr.TTL("brutalball:table:injuries"))

	mr.FastForward(2 * time.Hour)
	_, err = rc.GetTable(ctx, extract.PageInjuries)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisTeams(t *testing.T) {
	_, rc := newTestRedis(t)
	ctx := context.Background()

	dir := teams.Directory{{ID: 1, Name: "Storm"}, {ID: 4, Name: "Medics"}}
	require.NoError(t, rc.SetTeams(ctx, dir))
	got, err := rc.GetTeams(ctx)
	require.NoError(t, err)
	assert.Equal(t, dir, got)
	require.NoError(t, rc.HealthCheck(ctx))
}

func TestFileCacheRoundTrip(t *testing.T) {
	fc := NewFileCache(t.TempDir())
	ctx := context.Background()

	_, err := fc.GetTable(ctx, extract.PageGameResults)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = fc.GetTable(ctx, extract.PagePlayers)
	assert.True(t, errors.Is(err, ErrNotFound))

	b := extract.Bundle{Headers: extract.GameResultHeaders, Rows: [][]string{{"5", "1", "A, B", "3", "1", "C", "100"}}}
	require.NoError(t, fc.SetTable(ctx, extract.PageGameResults, b))
	got, err := fc.GetTable(ctx, extract.PageGameResults)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestFileCachePlayersOverlay(t *testing.T) {
	fc := NewFileCache(t.TempDir())
	ctx := context.Background()
	headers := []string{"Name", "Number", "Race", "Team"}

	merged := extract.Bundle{Headers: headers, Rows: [][]string{
		{"a", "1", "Orc", "Storm"},
		{"b", "2", "Orc", "Medics"},
	}}
	require.NoError(t, fc.SetTable(ctx, extract.PagePlayers, merged))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(fc.Path(extract.PagePlayers), old, old))

	dir := fc.Dir(extract.PagePlayers)
	fresh := extract.Bundle{Headers: headers, Rows: [][]string{{"c", "3", "Elf", "Storm"}}}
	require.NoError(t, export.WriteFile(filepath.Join(dir, "Storm.csv"), fresh, export.FormatCSV,
		export.Options{Sep: ',', IncludeHeaders: true}))

	stale := extract.Bundle{Headers: headers, Rows: [][]string{{"z", "9", "Elf", "Medics"}}}
	stalePath := filepath.Join(dir, "Medics.csv")
	require.NoError(t, export.WriteFile(stalePath, stale, export.FormatCSV, export.Options{Sep: ','}))
	older := old.Add(-time.Hour)
	require.NoError(t, os.Chtimes(stalePath, older, older))

	got, err := fc.GetTable(ctx, extract.PagePlayers)
	require.NoError(t, err)
	assert.Equal(t, headers, got.Headers)
	assert.Equal(t, [][]string{
		{"c", "3", "Elf", "Storm"},
		{"b", "2", "Orc", "Medics"},
	}, got.Rows)
}

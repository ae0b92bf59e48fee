package publisher

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/brutalball/internal/extract"
)

func TestPublishTableUpdated(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	pub := NewRedisStreamPublisher(rdb)

	id, err := pub.PublishTableUpdated(ctx, TableUpdated{Page: extract.PageInjuries, Rows: 3, Fingerprint: "ab"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	entries, err := rdb.XRange(ctx, "brutalball.tables.injuries", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	payload, ok := entries[0].Values["payload"].(string)
	require.True(t, ok, "payload not string")
	var got TableUpdated
	require.NoError(t, json.Unmarshal([]byte(payload), &got))
	assert.Equal(t, extract.PageInjuries, got.Page)
	assert.Equal(t, 3, got.Rows)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestPublishIfChanged(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	pub := NewRedisStreamPublisher(rdb)
	b := extract.Bundle{Headers: []string{"S"}, Rows: [][]string{{"1"}}}

	sent, err := pub.PublishIfChanged(ctx, extract.PageGameResults, b, "job-1")
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = pub.PublishIfChanged(ctx, extract.PageGameResults, b, "job-2")
	require.NoError(t, err)
	assert.False(t, sent)

	b.Rows = append(b.Rows, []string{"2"})
	sent, err = pub.PublishIfChanged(ctx, extract.PageGameResults, b, "job-3")
	require.NoError(t, err)
	assert.True(t, sent)

	n, err := rdb.XLen(ctx, StreamKey(extract.PageGameResults)).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

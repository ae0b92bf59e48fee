package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/brutalball/internal/extract"
)

const (
	// StreamPrefix is followed by the page name, e.g. "brutalball.tables.players".
	StreamPrefix = "brutalball.tables."
	// fingerprintPrefix keys the last published fingerprint per page.
	fingerprintPrefix = "brutalball:fingerprint:"
)

// StreamKey is the stream a page's updates are published to.
func StreamKey(p extract.Page) string { return StreamPrefix + string(p) }

// TableUpdated is the payload emitted when a page's table changes.
type TableUpdated struct {
	Page        extract.Page `json:"page"`
	Rows        int          `json:"rows"`
	Fingerprint string       `json:"fingerprint"`
	JobID       string       `json:"job_id,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// PublishTableUpdated adds an update event for the page and returns its stream id.
func (rsp *RedisStreamPublisher) PublishTableUpdated(ctx context.Context, e TableUpdated) (string, error) {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}
	body, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	id, err := rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey(e.Page),
		Values: map[string]interface{}{
			"payload":   string(body),
			"timestamp": e.UpdatedAt.Unix(),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}
	return id, nil
}

// PublishIfChanged publishes only when b's fingerprint differs from the last
// one published for the page. It reports whether an event was emitted.
func (rsp *RedisStreamPublisher) PublishIfChanged(ctx context.Context, p extract.Page, b extract.Bundle, jobID string) (bool, error) {
	fp := strconv.FormatUint(b.Fingerprint(), 16)
	prev, err := rsp.client.GetSet(ctx, fingerprintPrefix+string(p), fp).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("swap fingerprint: %w", err)
	}
	if prev == fp {
		return false, nil
	}
	_, err = rsp.PublishTableUpdated(ctx, TableUpdated{Page: p, Rows: b.Len(), Fingerprint: fp, JobID: jobID})
	return err == nil, err
}

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/jobs"
	"github.com/fortuna/brutalball/internal/scrape"
)

type recordingQueue struct {
	mu       sync.Mutex
	pages    []extract.Page
	failures int
}

func (q *recordingQueue) Enqueue(_ context.Context, req scrape.Request) (*jobs.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failures > 0 {
		q.failures--
		return nil, errors.New("queue unavailable")
	}
	q.pages = append(q.pages, req.Page)
	return &jobs.Job{Request: req}, nil
}

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pages)
}

func TestOrchestratorQueuesPagesUntilCancelled(t *testing.T) {
	q := &recordingQueue{failures: 1}
	o := NewOrchestrator(q, &Config{
		Interval:   20 * time.Millisecond,
		Pages:      []extract.Page{extract.PageInjuries, extract.PageGameResults},
		RunOnStart: true,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		o.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return q.count() >= 4 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("orchestrator did not stop")
	}

	q.mu.Lock()
	assert.Equal(t, []extract.Page{extract.PageInjuries, extract.PageGameResults}, q.pages[:2])
	q.mu.Unlock()
	assert.Contains(t, o.GetStatus(), "last_run")
}

func TestOrchestratorDisabled(t *testing.T) {
	q := &recordingQueue{}
	o := NewOrchestrator(q, &Config{Interval: 0, Pages: []extract.Page{extract.PagePlayers}})

	done := make(chan struct{})
	go func() {
		o.Start(context.Background())
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	o.Stop()
	<-done
	assert.Zero(t, q.count())
}

package dozer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/brutalball/internal/extract"
)

func testClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(ClientConfig{
		BaseURL:    srv.URL + "/brutalball/",
		Timeout:    2 * time.Second,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})
}

func TestFetchDecodesLossy(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/brutalball/team.php", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("i"))
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Write([]byte("ok \xff done"))
	}))

	body, err := c.Fetch(context.Background(), TeamPath(7))
	require.NoError(t, err)
	assert.Equal(t, "ok � done", body)
}

func TestFetchNon200IsError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := c.Fetch(context.Background(), PathInjuries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("<html></html>"))
	}))

	body, err := c.Fetch(context.Background(), PathSeason)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", body)
	assert.EqualValues(t, 2, calls.Load())
}

func TestFetchHonoursContext(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, PathIndex)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

type stubFetcher map[string]string

func (s stubFetcher) Fetch(_ context.Context, path string) (string, error) {
	doc, ok := s[path]
	if !ok {
		return "", errors.New("not found")
	}
	return doc, nil
}

func TestDetectSeason(t *testing.T) {
	f := stubFetcher{
		"stat_team_performance.php": "<title>Season 14 team performance</title>",
	}
	assert.Equal(t, "14", DetectSeason(context.Background(), f))
	assert.Equal(t, "", DetectSeason(context.Background(), stubFetcher{}))
}

func TestPagePath(t *testing.T) {
	p, ok := PagePath(extract.PageInjuries)
	assert.True(t, ok)
	assert.Equal(t, "injury.php", p)
	_, ok = PagePath(extract.PagePlayers)
	assert.False(t, ok)
}

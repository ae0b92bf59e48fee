package dozer

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the league site root; page paths are relative to it.
	BaseURL = "http://dozerverse.com/brutalball/"

	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (X11; Linux x86_64) brutalball-scraper/1.0"

	DefaultTimeout    = 15 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = 500 * time.Millisecond
	// DefaultInterval spaces consecutive requests from one client.
	DefaultInterval = 75 * time.Millisecond
)

// Fetcher returns the full response body of one league page.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// ClientConfig tunes the HTTP client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Interval   time.Duration
}

// DefaultClientConfig returns sensible defaults
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:    BaseURL,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		Interval:   DefaultInterval,
	}
}

// Client fetches league pages over plain HTTP.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// New creates a client for the given config
func New(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	log.Printf("[dozer-client] New() called with baseURL: %s", cfg.BaseURL)

	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", UserAgent).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryDelay).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}
	return &Client{http: hc, limiter: rate.NewLimiter(limit, 1)}
}

// Fetch GETs path (relative to the site root) and returns the body decoded
// as UTF-8, with invalid sequences replaced.
func (c *Client) Fetch(ctx context.Context, path string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	res, err := c.http.R().SetContext(ctx).Get("/" + strings.TrimLeft(path, "/"))
	if err != nil {
		log.Printf("[dozer-client] ❌ GET %s failed: %v", path, err)
		return "", fmt.Errorf("fetching %s: %w", path, err)
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %s", path, res.Status())
	}

	body := strings.ToValidUTF8(string(res.Body()), "�")
	log.Printf("[dozer-client] ✓ GET %s (%d bytes in %v)", path, len(body), res.Time())
	return body, nil
}

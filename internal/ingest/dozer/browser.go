package dozer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserTimeout bounds one headless page load.
const BrowserTimeout = 30 * time.Second

// Browser fetches league pages through headless Chrome. It is the fallback
// for hosts that refuse plain HTTP clients.
type Browser struct {
	baseURL string

	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewBrowser starts a Chrome allocator rooted at baseURL
func NewBrowser(baseURL string) *Browser {
	if baseURL == "" {
		baseURL = BaseURL
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Browser{
		baseURL:  strings.TrimRight(baseURL, "/") + "/",
		allocCtx: allocCtx,
		cancel:   cancel,
	}
}

// Close releases the browser
func (b *Browser) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

// Fetch renders path and returns the resulting document.
func (b *Browser) Fetch(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, BrowserTimeout)
	defer cancel()

	tabCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()
	tabCtx, cancel = context.WithTimeout(tabCtx, BrowserTimeout)
	defer cancel()

	// propagate the caller's cancellation into the tab
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	url := b.baseURL + strings.TrimLeft(path, "/")
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(`body`, chromedp.ByQuery),
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}
	if html == "" {
		return "", fmt.Errorf("empty HTML content returned for %s", path)
	}

	log.Printf("[dozer-browser] ✓ rendered %s (%d bytes)", path, len(html))
	return strings.ToValidUTF8(html, "�"), nil
}

// Package feed keeps the slideshow's image list in sync with the backend
// album endpoint and tracks the rotation cursor.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// FallbackImage is shown whenever the album cannot be fetched or comes back
// empty. The slideshow never runs with zero images.
const FallbackImage = "/FALLBACK.png"

// Client fetches the album image list from the backend and rotates through
// it. Refreshing and advancing are independent: the slideshow timer advances
// the cursor while the refetch timer replaces the list underneath it.
type Client struct {
	baseURL string
	client  *http.Client

	// issued orders concurrent refreshes so only the last one applies.
	issued atomic.Uint64

	mu     sync.Mutex
	urls   []string
	cursor int
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WaitReady polls the backend until it answers an HTTP request or ctx
// expires. Callers use it to hold off the first Refresh until the server is
// actually listening.
func (c *Client) WaitReady(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/schedule", nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := c.client.Do(req)
		if err == nil {
			resp.Body.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("backend not reachable: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Refresh fetches the image list for albumURL (the backend default album when
// empty) and replaces the current list. Any failure, or an empty result,
// swaps in the single fallback image instead; the error is returned so the
// caller can log it. If a newer refresh was issued while this one was in
// flight its result is discarded.
func (c *Client) Refresh(ctx context.Context, albumURL string) error {
	gen := c.issued.Add(1)

	urls, err := c.fetch(ctx, albumURL)
	if err == nil && len(urls) == 0 {
		err = fmt.Errorf("album returned no images")
	}
	if err != nil {
		urls = []string{FallbackImage}
	}

	c.apply(gen, urls)
	return err
}

func (c *Client) fetch(ctx context.Context, albumURL string) ([]string, error) {
	endpoint := c.baseURL + "/api/album"
	if albumURL != "" {
		endpoint += "?url=" + url.QueryEscape(albumURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var urls []string
	if err := json.Unmarshal(body, &urls); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return urls, nil
}

// apply installs the list fetched by refresh generation gen. The cursor keeps
// its rotation position, clamped modulo the new length.
func (c *Client) apply(gen uint64, urls []string) {
	if gen != c.issued.Load() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls = urls
	if len(urls) > 0 {
		c.cursor %= len(urls)
	} else {
		c.cursor = 0
	}
}

// Invalidate discards the result of any refresh still in flight. The current
// list is untouched.
func (c *Client) Invalidate() {
	c.issued.Add(1)
}

// Current returns the image at the cursor, or the empty string while no
// refresh has completed yet.
func (c *Client) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.urls) == 0 {
		return ""
	}
	return c.urls[c.cursor]
}

// Advance moves the cursor to the next image, wrapping at the end of the
// list, and returns it.
func (c *Client) Advance() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.urls) == 0 {
		return ""
	}
	c.cursor = (c.cursor + 1) % len(c.urls)
	return c.urls[c.cursor]
}

// Cursor returns the current rotation index.
func (c *Client) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Images returns a copy of the current list.
func (c *Client) Images() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.urls))
	copy(out, c.urls)
	return out
}

// DisplayURL resolves an album entry to the URL the display should load.
// External entries are routed through the proxy so the browser never fetches
// cross-origin; local paths are used as-is.
func DisplayURL(entry string) string {
	if strings.HasPrefix(entry, "http://") || strings.HasPrefix(entry, "https://") || strings.HasPrefix(entry, "s3://") {
		return "/api/proxy?url=" + url.QueryEscape(entry)
	}
	return entry
}

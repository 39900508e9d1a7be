// Package album lists the image URLs of a remote shared album. Providers are
// consumed only at this boundary: given an album URL they return an ordered
// list of image URLs, or an error.
package album

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

const fetchTimeout = 10 * time.Second

// Lister resolves an album URL into its ordered image URLs.
type Lister interface {
	List(ctx context.Context, albumURL string) ([]string, error)
}

// hostedImageRe matches the CDN URLs embedded in a shared album page.
var hostedImageRe = regexp.MustCompile(`https://lh\d+\.googleusercontent\.com/[A-Za-z0-9\-_]{40,}`)

// SharedAlbumLister scrapes a public shared-album page for its hosted image
// URLs. The page is fetched anonymously; albums requiring a session are out
// of scope.
type SharedAlbumLister struct {
	client *http.Client
}

func NewSharedAlbumLister() *SharedAlbumLister {
	return &SharedAlbumLister{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

func (l *SharedAlbumLister) List(ctx context.Context, albumURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, albumURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create album request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch album page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("album page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read album page: %w", err)
	}

	// Each image appears several times in the page markup; keep the first
	// occurrence so the album order is preserved.
	seen := make(map[string]struct{})
	var urls []string
	for _, u := range hostedImageRe.FindAllString(string(body), -1) {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	return urls, nil
}

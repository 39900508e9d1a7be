package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"smartmirror/album"
)

const (
	albumCacheInterval = 5 * time.Minute
	albumFetchTimeout  = 10 * time.Second
)

// AlbumManager keeps an in-memory cache of the default album's image list so
// dashboard requests do not hit the remote provider on every refetch cycle.
type AlbumManager struct {
	lister   album.Lister
	albumURL string

	mu    sync.Mutex
	cache []string
}

func NewAlbumManager(lister album.Lister, albumURL string) *AlbumManager {
	return &AlbumManager{
		lister:   lister,
		albumURL: albumURL,
	}
}

func (a *AlbumManager) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), albumFetchTimeout)
	defer cancel()

	urls, err := a.lister.List(ctx, a.albumURL)
	if err != nil {
		slog.Warn("failed to refresh default album cache", "error", err)
		return
	}

	a.mu.Lock()
	a.cache = urls
	a.mu.Unlock()
	slog.Info("default album cache updated", "count", len(urls))
}

// Get returns the cached list, refreshing synchronously if the cache is
// still empty.
func (a *AlbumManager) Get() []string {
	a.mu.Lock()
	empty := len(a.cache) == 0
	a.mu.Unlock()

	if empty {
		a.refresh()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.cache))
	copy(out, a.cache)
	return out
}

func (a *AlbumManager) Run() {
	ticker := time.NewTicker(albumCacheInterval)

	// Initial sync
	a.refresh()

	for range ticker.C {
		a.refresh()
	}
}

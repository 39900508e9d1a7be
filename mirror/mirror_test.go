package mirror

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartmirror/config"
	"smartmirror/feed"
	"smartmirror/schedule"
	"smartmirror/store"
)

func newTestMirror(t *testing.T, albumURLs []string) (*Mirror, *config.Store) {
	t.Helper()

	db, err := store.NewDatabase(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfgStore, err := config.NewStore(db)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/album", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(albumURLs)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	m := New(cfgStore, feed.NewClient(server.URL), nil)
	t.Cleanup(m.Unmount)
	return m, cfgStore
}

func ptr[T any](v T) *T { return &v }

func TestMountStartsAllTimers(t *testing.T) {
	m, _ := newTestMirror(t, []string{"a.jpg"})

	m.Mount()

	for _, name := range []string{TimerClock, TimerClass, TimerSlideshow, TimerAlbum} {
		assert.True(t, m.sup.Running(name), name)
	}

	period, ok := m.sup.Period(TimerSlideshow)
	require.True(t, ok)
	assert.Equal(t, time.Duration(config.Defaults.SlideshowSpeed)*time.Second, period)
}

func TestMountPerformsInitialTicks(t *testing.T) {
	m, _ := newTestMirror(t, []string{"https://img.example.com/a"})

	m.Mount()

	snap := m.Snapshot()
	assert.False(t, snap.Time.IsZero(), "clock ticked on mount")
	assert.NotEmpty(t, snap.CurrentClass)

	assert.Eventually(t, func() bool {
		return m.Snapshot().Image != ""
	}, time.Second, 10*time.Millisecond, "initial album refresh populates the slideshow")

	assert.Equal(t, "/api/proxy?url=https%3A%2F%2Fimg.example.com%2Fa", m.Snapshot().Image)
}

func TestUnmountStopsAllTimers(t *testing.T) {
	m, _ := newTestMirror(t, []string{"a.jpg"})

	m.Mount()
	m.Unmount()

	for _, name := range []string{TimerClock, TimerClass, TimerSlideshow, TimerAlbum} {
		assert.False(t, m.sup.Running(name), name)
	}
}

func TestSpeedChangeRestartsSlideshowTimer(t *testing.T) {
	m, cfgStore := newTestMirror(t, []string{"a.jpg"})

	m.Mount()
	cfgStore.Update(config.Partial{SlideshowSpeed: ptr(15)})

	period, ok := m.sup.Period(TimerSlideshow)
	require.True(t, ok)
	assert.Equal(t, 15*time.Second, period)
}

func TestUnrelatedChangeKeepsSlideshowTimer(t *testing.T) {
	m, cfgStore := newTestMirror(t, []string{"a.jpg"})

	m.Mount()
	before, ok := m.sup.Period(TimerSlideshow)
	require.True(t, ok)

	cfgStore.Update(config.Partial{TextColor: ptr("#ffffff")})

	after, ok := m.sup.Period(TimerSlideshow)
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestConfigChangeAfterUnmountIgnored(t *testing.T) {
	m, cfgStore := newTestMirror(t, []string{"a.jpg"})

	m.Mount()
	m.Unmount()

	cfgStore.Update(config.Partial{SlideshowSpeed: ptr(15)})

	assert.False(t, m.sup.Running(TimerSlideshow))
}

func TestAlbumChangeTriggersRefresh(t *testing.T) {
	m, cfgStore := newTestMirror(t, []string{"first.jpg"})

	m.Mount()
	assert.Eventually(t, func() bool {
		return m.Snapshot().Image != ""
	}, time.Second, 10*time.Millisecond)

	// The test album server ignores the url param, so the refresh is
	// observed through the feed being repopulated rather than its content.
	cfgStore.Update(config.Partial{AlbumURL: ptr("https://photos.example.com/share/xyz")})
	assert.Eventually(t, func() bool {
		return m.Snapshot().Image != ""
	}, time.Second, 10*time.Millisecond)
}

func TestUnmountDiscardsInFlightRefresh(t *testing.T) {
	db, err := store.NewDatabase(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfgStore, err := config.NewStore(db)
	require.NoError(t, err)

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/api/album", func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		json.NewEncoder(w).Encode([]string{"late.jpg"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	m := New(cfgStore, feed.NewClient(server.URL), nil)
	m.Mount()

	// Unmount while the initial refresh is blocked inside the backend, then
	// let it finish. Its result must not reach the feed.
	<-entered
	m.Unmount()
	close(release)

	assert.Never(t, func() bool {
		return m.Snapshot().Image != ""
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestSnapshotClassLabelTracksSchedule(t *testing.T) {
	m, _ := newTestMirror(t, []string{"a.jpg"})
	m.periods = []schedule.Period{{Start: "00:00", End: "23:59", Label: "All day"}}

	m.Mount()
	assert.Equal(t, "All day", m.Snapshot().CurrentClass)
}

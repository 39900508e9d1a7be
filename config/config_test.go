package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartmirror/store"
)

func newTestStore(t *testing.T) (*Store, *store.Database) {
	t.Helper()

	db, err := store.NewDatabase(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := NewStore(db)
	require.NoError(t, err)
	return s, db
}

func ptr[T any](v T) *T { return &v }

func TestLoadDefaultsWhenEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Equal(t, Defaults, s.Load())
	assert.Equal(t, Defaults, s.Current())
}

func TestUpdatePersistsAcrossReload(t *testing.T) {
	s, db := newTestStore(t)

	s.Update(Partial{SlideshowSpeed: ptr(120)})

	// Simulate a reload by building a fresh store over the same jar.
	reloaded, err := NewStore(db)
	require.NoError(t, err)

	cfg := reloaded.Current()
	assert.Equal(t, 120, cfg.SlideshowSpeed)

	// Everything else untouched.
	cfg.SlideshowSpeed = Defaults.SlideshowSpeed
	assert.Equal(t, Defaults, cfg)
}

func TestUpdateMergesPartially(t *testing.T) {
	s, _ := newTestStore(t)

	s.Update(Partial{TextColor: ptr("#ffffff")})
	updated := s.Update(Partial{BackgroundColor: ptr("#222222")})

	assert.Equal(t, "#ffffff", updated.TextColor)
	assert.Equal(t, "#222222", updated.BackgroundColor)
	assert.Equal(t, Defaults.FontFamily, updated.FontFamily)
}

func TestEmptyAlbumURLClearsToDefault(t *testing.T) {
	s, db := newTestStore(t)

	s.Update(Partial{AlbumURL: ptr("https://photos.example.com/share/abc")})
	s.Update(Partial{AlbumURL: ptr("")})

	assert.Equal(t, Defaults.AlbumURL, s.Current().AlbumURL)

	_, ok, err := db.Get("albumUrl")
	require.NoError(t, err)
	assert.False(t, ok, "clearing should remove the persisted key")

	reloaded, err := NewStore(db)
	require.NoError(t, err)
	assert.Equal(t, Defaults.AlbumURL, reloaded.Current().AlbumURL)
}

func TestNonPositiveSpeedIgnored(t *testing.T) {
	s, _ := newTestStore(t)

	s.Update(Partial{SlideshowSpeed: ptr(30)})
	updated := s.Update(Partial{SlideshowSpeed: ptr(0)})
	assert.Equal(t, 30, updated.SlideshowSpeed)

	updated = s.Update(Partial{SlideshowSpeed: ptr(-5)})
	assert.Equal(t, 30, updated.SlideshowSpeed)
}

func TestLoadCorrectsBadPersistedSpeed(t *testing.T) {
	s, db := newTestStore(t)

	require.NoError(t, db.Set("slideshowSpeed", "not-a-number", store.DefaultRetention))
	assert.Equal(t, Defaults.SlideshowSpeed, s.Load().SlideshowSpeed)

	require.NoError(t, db.Set("slideshowSpeed", "-10", store.DefaultRetention))
	assert.Equal(t, Defaults.SlideshowSpeed, s.Load().SlideshowSpeed)
}

func TestRevertRoundTrip(t *testing.T) {
	s, db := newTestStore(t)

	s.Update(Partial{
		TextColor:      ptr("#ff0000"),
		AlbumURL:       ptr("https://photos.example.com/share/abc"),
		SlideshowSpeed: ptr(90),
		MusicURL:       ptr("https://music.example.com/watch?v=xyz"),
	})

	reverted := s.Revert()
	assert.Equal(t, Defaults, reverted)

	reloaded, err := NewStore(db)
	require.NoError(t, err)
	assert.Equal(t, Defaults, reloaded.Current())
}

func TestSubscribeNotifiedAfterUpdate(t *testing.T) {
	s, _ := newTestStore(t)

	var got []UserConfig
	s.Subscribe(func(cfg UserConfig) { got = append(got, cfg) })

	s.Update(Partial{SlideshowSpeed: ptr(45)})

	require.Len(t, got, 1)
	assert.Equal(t, 45, got[0].SlideshowSpeed)

	// Listener sees the fully merged config, not just the changed field.
	assert.Equal(t, Defaults.TextColor, got[0].TextColor)
}

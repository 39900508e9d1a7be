package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSetGet(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.Set("textColor", "#ffffff", DefaultRetention))

	val, ok, err := db.Get("textColor")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "#ffffff", val)
}

func TestGetMissingKey(t *testing.T) {
	db := newTestDatabase(t)

	_, ok, err := db.Get("albumUrl")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetOverwrites(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.Set("slideshowSpeed", "60", DefaultRetention))
	require.NoError(t, db.Set("slideshowSpeed", "120", DefaultRetention))

	val, ok, err := db.Get("slideshowSpeed")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "120", val)
}

func TestNonPositiveRetentionRemoves(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.Set("musicUrl", "https://example.com/watch?v=abc", DefaultRetention))
	require.NoError(t, db.Set("musicUrl", "", -time.Second))

	_, ok, err := db.Get("musicUrl")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpiredKeyNotReturned(t *testing.T) {
	db := newTestDatabase(t)

	// Already expired by the time it is read back.
	require.NoError(t, db.Set("backgroundColor", "#000000", time.Nanosecond))
	time.Sleep(10 * time.Millisecond)

	_, ok, err := db.Get("backgroundColor")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := db.Keys()
	require.NoError(t, err)
	assert.NotContains(t, keys, "backgroundColor")
}

func TestKeys(t *testing.T) {
	db := newTestDatabase(t)

	require.NoError(t, db.Set("textColor", "#b3e5fc", DefaultRetention))
	require.NoError(t, db.Set("fontFamily", "Poppins", DefaultRetention))

	keys, err := db.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"textColor", "fontFamily"}, keys)
}

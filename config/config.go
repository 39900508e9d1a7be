// Package config holds the user adjustable display settings and keeps them in
// sync with the settings jar. All reads and writes of the current config go
// through a single Store instance.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"smartmirror/store"
)

// UserConfig is the full set of user adjustable settings. Every field has a
// non empty behavior: an empty AlbumURL means the server configured default
// album and an empty MusicURL disables ambient audio.
type UserConfig struct {
	TextColor       string `json:"textColor"`
	FontFamily      string `json:"fontFamily"`
	BackgroundColor string `json:"backgroundColor"`
	AlbumURL        string `json:"albumUrl"`
	SlideshowSpeed  int    `json:"slideshowSpeed"`
	MusicURL        string `json:"musicUrl"`
}

// Defaults are applied for any missing or unparseable persisted value.
var Defaults = UserConfig{
	TextColor:       "#b3e5fc",
	FontFamily:      "Poppins, sans-serif",
	BackgroundColor: "#1a1a1a",
	AlbumURL:        "",
	SlideshowSpeed:  60,
	MusicURL:        "",
}

// Partial is a config update where nil fields are left untouched.
type Partial struct {
	TextColor       *string `json:"textColor"`
	FontFamily      *string `json:"fontFamily"`
	BackgroundColor *string `json:"backgroundColor"`
	AlbumURL        *string `json:"albumUrl"`
	SlideshowSpeed  *int    `json:"slideshowSpeed"`
	MusicURL        *string `json:"musicUrl"`
}

// Listener is notified with the full new config after every applied update,
// before the next timer tick can observe the change.
type Listener func(UserConfig)

type Store struct {
	db *store.Database

	mu        sync.Mutex
	current   UserConfig
	listeners []Listener
}

func NewStore(db *store.Database) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("no database provided for config store")
	}

	s := &Store{db: db}
	s.current = s.Load()
	return s, nil
}

// Load reads every field from the settings jar, substituting the default for
// any missing, expired, or unparseable value. Read errors are corrected to
// defaults and never surfaced.
func (s *Store) Load() UserConfig {
	cfg := UserConfig{
		TextColor:       s.loadString("textColor", Defaults.TextColor),
		FontFamily:      s.loadString("fontFamily", Defaults.FontFamily),
		BackgroundColor: s.loadString("backgroundColor", Defaults.BackgroundColor),
		AlbumURL:        s.loadString("albumUrl", Defaults.AlbumURL),
		MusicURL:        s.loadString("musicUrl", Defaults.MusicURL),
	}

	cfg.SlideshowSpeed = Defaults.SlideshowSpeed
	if raw, ok := s.get("slideshowSpeed"); ok {
		speed, err := strconv.Atoi(raw)
		if err != nil || speed <= 0 {
			slog.Warn("invalid persisted slideshow speed, using default", "value", raw, "default", Defaults.SlideshowSpeed)
		} else {
			cfg.SlideshowSpeed = speed
		}
	}

	return cfg
}

func (s *Store) loadString(key, fallback string) string {
	if val, ok := s.get(key); ok && val != "" {
		return val
	}
	return fallback
}

func (s *Store) get(key string) (string, bool) {
	val, ok, err := s.db.Get(key)
	if err != nil {
		slog.Warn("unable to read setting", "key", key, "error", err)
		return "", false
	}
	return val, ok
}

// Current returns the in-memory config.
func (s *Store) Current() UserConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers a listener for config changes. Listeners are invoked
// synchronously, in registration order, after an update is applied.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Update merges the set fields of p over the current config, persists each of
// them, and broadcasts the result. Assigning an empty string clears that key
// from the jar so the next Load falls back to the default. A non-positive
// slideshow speed is ignored entirely.
func (s *Store) Update(p Partial) UserConfig {
	s.mu.Lock()

	if p.TextColor != nil {
		s.current.TextColor = s.applyString("textColor", *p.TextColor, Defaults.TextColor)
	}
	if p.FontFamily != nil {
		s.current.FontFamily = s.applyString("fontFamily", *p.FontFamily, Defaults.FontFamily)
	}
	if p.BackgroundColor != nil {
		s.current.BackgroundColor = s.applyString("backgroundColor", *p.BackgroundColor, Defaults.BackgroundColor)
	}
	if p.AlbumURL != nil {
		s.current.AlbumURL = s.applyString("albumUrl", *p.AlbumURL, Defaults.AlbumURL)
	}
	if p.MusicURL != nil {
		s.current.MusicURL = s.applyString("musicUrl", *p.MusicURL, Defaults.MusicURL)
	}
	if p.SlideshowSpeed != nil {
		if *p.SlideshowSpeed > 0 {
			s.current.SlideshowSpeed = *p.SlideshowSpeed
			s.persist("slideshowSpeed", strconv.Itoa(*p.SlideshowSpeed))
		} else {
			slog.Warn("ignoring non-positive slideshow speed", "value", *p.SlideshowSpeed)
		}
	}

	updated := s.current
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(updated)
	}

	return updated
}

// applyString persists a single string setting. An empty value expires the
// key, the cookie clearing behavior, and the field reverts to its default.
func (s *Store) applyString(key, value, fallback string) string {
	if value == "" {
		if err := s.db.Set(key, "", -1); err != nil {
			slog.Warn("unable to clear setting", "key", key, "error", err)
		}
		return fallback
	}
	s.persist(key, value)
	return value
}

func (s *Store) persist(key, value string) {
	if err := s.db.Set(key, value, store.DefaultRetention); err != nil {
		slog.Warn("unable to persist setting", "key", key, "error", err)
	}
}

// Revert resets every field to Defaults, clearing all persisted keys so a
// fresh Load returns Defaults exactly.
func (s *Store) Revert() UserConfig {
	d := Defaults
	return s.Update(Partial{
		TextColor:       &d.TextColor,
		FontFamily:      &d.FontFamily,
		BackgroundColor: &d.BackgroundColor,
		AlbumURL:        &d.AlbumURL,
		SlideshowSpeed:  &d.SlideshowSpeed,
		MusicURL:        &d.MusicURL,
	})
}

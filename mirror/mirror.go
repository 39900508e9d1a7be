// Package mirror is the dashboard core. It owns the recurring timers (clock,
// class lookup, slideshow advance, album refetch), re-reads configuration on
// change, and exposes the state the display renders.
package mirror

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"smartmirror/config"
	"smartmirror/feed"
	"smartmirror/schedule"
	"smartmirror/tasks"
)

// Timer names registered with the supervisor.
const (
	TimerClock     = "clock"
	TimerClass     = "class"
	TimerSlideshow = "slideshow"
	TimerAlbum     = "album"
)

const (
	defaultClockInterval = time.Second
	// The class label only changes on minute boundaries but the original
	// display recomputed it every second; keep that cadence.
	defaultClassInterval = time.Second
	defaultAlbumInterval = 5 * time.Minute

	refreshTimeout = 10 * time.Second
)

// Snapshot is the render state of the dashboard at one instant.
type Snapshot struct {
	Time         time.Time         `json:"time"`
	CurrentClass string            `json:"currentClass"`
	Image        string            `json:"image"`
	Config       config.UserConfig `json:"config"`
}

type Mirror struct {
	cfg     *config.Store
	feed    *feed.Client
	periods []schedule.Period
	sup     *tasks.Supervisor

	clockInterval time.Duration
	classInterval time.Duration
	albumInterval time.Duration

	mu           sync.Mutex
	mounted      bool
	now          time.Time
	currentClass string
	lastSpeed    int
	lastAlbum    string
}

// New builds a mirror over the given config store and feed client. A nil
// periods slice uses the built-in school day.
func New(cfg *config.Store, feedClient *feed.Client, periods []schedule.Period) *Mirror {
	if periods == nil {
		periods = schedule.Default
	}

	m := &Mirror{
		cfg:           cfg,
		feed:          feedClient,
		periods:       periods,
		sup:           tasks.NewSupervisor(),
		clockInterval: defaultClockInterval,
		classInterval: defaultClassInterval,
		albumInterval: defaultAlbumInterval,
		currentClass:  schedule.Sentinel,
	}
	cfg.Subscribe(m.onConfigChange)
	return m
}

// Mount performs the initial ticks, kicks off the first album refresh, and
// starts all four timers. Mounting twice restarts the timers.
func (m *Mirror) Mount() {
	userCfg := m.cfg.Current()

	m.mu.Lock()
	m.mounted = true
	m.lastSpeed = userCfg.SlideshowSpeed
	m.lastAlbum = userCfg.AlbumURL
	m.mu.Unlock()

	m.tickClock()
	m.tickClass()
	go m.refreshAlbum()

	m.sup.Start(TimerClock, m.clockInterval, m.tickClock)
	m.sup.Start(TimerClass, m.classInterval, m.tickClass)
	m.sup.Start(TimerSlideshow, time.Duration(userCfg.SlideshowSpeed)*time.Second, m.advanceSlide)
	m.sup.Start(TimerAlbum, m.albumInterval, func() { go m.refreshAlbum() })
}

// Unmount stops every timer and discards any album refresh still in flight,
// so the feed is left exactly as it was.
func (m *Mirror) Unmount() {
	m.mu.Lock()
	m.mounted = false
	m.mu.Unlock()
	m.sup.StopAll()
	m.feed.Invalidate()
}

func (m *Mirror) alive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mounted
}

// onConfigChange restarts the slideshow timer when its speed changes and
// refetches the album when the album URL changes. Other settings only affect
// presentation and need no timer work.
func (m *Mirror) onConfigChange(userCfg config.UserConfig) {
	m.mu.Lock()
	if !m.mounted {
		m.mu.Unlock()
		return
	}
	speedChanged := userCfg.SlideshowSpeed != m.lastSpeed
	albumChanged := userCfg.AlbumURL != m.lastAlbum
	m.lastSpeed = userCfg.SlideshowSpeed
	m.lastAlbum = userCfg.AlbumURL
	m.mu.Unlock()

	if speedChanged {
		slog.Info("restarting slideshow timer", "seconds", userCfg.SlideshowSpeed)
		m.sup.Start(TimerSlideshow, time.Duration(userCfg.SlideshowSpeed)*time.Second, m.advanceSlide)
	}
	if albumChanged {
		slog.Info("album changed, refreshing", "albumUrl", userCfg.AlbumURL)
		go m.refreshAlbum()
	}
}

func (m *Mirror) tickClock() {
	m.mu.Lock()
	m.now = time.Now()
	m.mu.Unlock()
}

func (m *Mirror) tickClass() {
	label := schedule.Classify(time.Now(), m.periods)
	m.mu.Lock()
	m.currentClass = label
	m.mu.Unlock()
}

func (m *Mirror) advanceSlide() {
	m.feed.Advance()
}

func (m *Mirror) refreshAlbum() {
	if !m.alive() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	err := m.feed.Refresh(ctx, m.cfg.Current().AlbumURL)
	if !m.alive() {
		return
	}
	if err != nil {
		slog.Warn("album refresh failed, showing fallback", "error", err)
	}
}

// Snapshot returns the current render state. The image is already resolved
// to its display URL; it is empty while the first refresh is outstanding.
func (m *Mirror) Snapshot() Snapshot {
	m.mu.Lock()
	now := m.now
	currentClass := m.currentClass
	m.mu.Unlock()

	img := m.feed.Current()
	if img != "" {
		img = feed.DisplayURL(img)
	}

	return Snapshot{
		Time:         now,
		CurrentClass: currentClass,
		Image:        img,
		Config:       m.cfg.Current(),
	}
}

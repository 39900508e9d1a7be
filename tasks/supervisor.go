// Package tasks owns the recurring timers behind the dashboard: clock tick,
// class lookup, slideshow advance, and album refetch. Each timer is registered
// under a name so a reconfiguration can replace it atomically.
package tasks

import (
	"fmt"
	"sync"
	"time"
)

type timer struct {
	ticker *time.Ticker
	period time.Duration
	done   chan struct{}
}

// Supervisor manages a set of named recurring timers. Timers fire
// independently of each other; a tick that arrives while the callback is
// still running is dropped rather than queued, so a slow callback never
// causes catch-up bursts.
type Supervisor struct {
	mu     sync.Mutex
	timers map[string]*timer
}

func NewSupervisor() *Supervisor {
	return &Supervisor{
		timers: make(map[string]*timer),
	}
}

// Start begins firing fn every period under the given name, replacing any
// timer already registered under that name. The first firing happens one full
// period from now; callers wanting an immediate tick invoke fn themselves.
// The period must be positive.
func (s *Supervisor) Start(name string, period time.Duration, fn func()) {
	if period <= 0 {
		panic(fmt.Sprintf("tasks: timer %s started with non-positive period %v", name, period))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked(name)

	t := &timer{
		ticker: time.NewTicker(period),
		period: period,
		done:   make(chan struct{}),
	}
	s.timers[name] = t

	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				fn()
			}
		}
	}()
}

// Stop cancels the named timer. Stopping an unknown or already stopped name
// is a no-op.
func (s *Supervisor) Stop(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(name)
}

func (s *Supervisor) stopLocked(name string) {
	t, ok := s.timers[name]
	if !ok {
		return
	}
	t.ticker.Stop()
	close(t.done)
	delete(s.timers, name)
}

// StopAll cancels every registered timer.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.timers {
		s.stopLocked(name)
	}
}

// Running reports whether a timer is registered under name.
func (s *Supervisor) Running(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[name]
	return ok
}

// Period returns the period of the named timer, if registered.
func (s *Supervisor) Period(name string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[name]
	if !ok {
		return 0, false
	}
	return t.period, true
}

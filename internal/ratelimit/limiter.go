// Package ratelimit implements sliding-window admission control per identity
// and for the process as a whole. It is independent of authentication:
// callers decide which requests qualify (e.g. AI generation calls) and
// surface a rejection themselves.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultUserLimit     = 10
	DefaultGlobalLimit   = 100
	DefaultWindow        = 60 * time.Second
	DefaultMaxIdentities = 10000
)

type Config struct {
	UserLimit   int
	GlobalLimit int
	Window      time.Duration
	// MaxIdentities bounds the number of tracked identity windows; the
	// least recently used window is forgotten when the bound is reached.
	MaxIdentities int
}

func (c Config) withDefaults() Config {
	if c.UserLimit <= 0 {
		c.UserLimit = DefaultUserLimit
	}
	if c.GlobalLimit <= 0 {
		c.GlobalLimit = DefaultGlobalLimit
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.MaxIdentities <= 0 {
		c.MaxIdentities = DefaultMaxIdentities
	}
	return c
}

// window is one sliding-window counter. Its mutex serialises
// read-check-increment; windows never share a lock.
type window struct {
	mu    sync.Mutex
	start time.Time
	count int
}

func newWindow(now time.Time) *window {
	return &window{start: now}
}

// tryAcquire resets the window if it rolled over, then admits the call when
// count < limit.
func (w *window) tryAcquire(limit int, size time.Duration, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if now.Sub(w.start) > size {
		w.start = now
		w.count = 0
	}
	if w.count >= limit {
		return false
	}
	w.count++
	return true
}

func (w *window) release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.count > 0 {
		w.count--
	}
}

func (w *window) remaining(limit int, size time.Duration, now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if now.Sub(w.start) > size {
		return limit
	}
	return max(0, limit-w.count)
}

func (w *window) reset(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start = now
	w.count = 0
}

// Limiter is safe for concurrent use.
type Limiter struct {
	cfg        Config
	global     *window
	identities *lru.Cache[string, *window]
	now        func() time.Time
}

func New(cfg Config) (*Limiter, error) {
	cfg = cfg.withDefaults()
	cache, err := lru.New[string, *window](cfg.MaxIdentities)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: identity cache: %w", err)
	}
	l := &Limiter{
		cfg:        cfg,
		identities: cache,
		now:        time.Now,
	}
	l.global = newWindow(l.now())
	return l, nil
}

func (l *Limiter) Config() Config {
	return l.cfg
}

// Allow admits one call for identity. The global window is consulted first
// and is the hard outer bound; a per-identity rejection gives the global
// slot back.
func (l *Limiter) Allow(identity string) bool {
	_, ok := l.allow(identity)
	return ok
}

// Scope names the window that rejected a call.
type Scope string

const (
	ScopeGlobal   Scope = "global"
	ScopeIdentity Scope = "identity"
)

// AllowScope is Allow that also reports which window rejected the call.
func (l *Limiter) AllowScope(identity string) (Scope, bool) {
	return l.allow(identity)
}

func (l *Limiter) allow(identity string) (Scope, bool) {
	now := l.now()

	if !l.global.tryAcquire(l.cfg.GlobalLimit, l.cfg.Window, now) {
		return ScopeGlobal, false
	}

	w := l.windowFor(identity, now)
	if !w.tryAcquire(l.cfg.UserLimit, l.cfg.Window, now) {
		l.global.release()
		return ScopeIdentity, false
	}
	return "", true
}

// RemainingQuota returns max(0, limit - count) for identity's current
// window, or the full limit when the window is untouched or rolled over.
// It never creates or mutates a window.
func (l *Limiter) RemainingQuota(identity string) int {
	w, ok := l.identities.Peek(identity)
	if !ok {
		return l.cfg.UserLimit
	}
	return w.remaining(l.cfg.UserLimit, l.cfg.Window, l.now())
}

func (l *Limiter) GlobalRemainingQuota() int {
	return l.global.remaining(l.cfg.GlobalLimit, l.cfg.Window, l.now())
}

// Reset forgets identity's window immediately.
func (l *Limiter) Reset(identity string) {
	l.identities.Remove(identity)
}

// ResetGlobal clears the global window immediately.
func (l *Limiter) ResetGlobal() {
	l.global.reset(l.now())
}

func (l *Limiter) windowFor(identity string, now time.Time) *window {
	if w, ok := l.identities.Get(identity); ok {
		return w
	}
	fresh := newWindow(now)
	prev, found, _ := l.identities.PeekOrAdd(identity, fresh)
	if found {
		return prev
	}
	return fresh
}

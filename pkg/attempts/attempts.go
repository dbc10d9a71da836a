// Package attempts tracks authorization attempts per actor so the
// surrounding request flow can throttle actors that keep getting denied.
package attempts

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/doodlesbykumbi/fincore-authz/pkg/authz"
)

// DefaultWindow is the counting window for Stats.
const DefaultWindow = time.Minute

// Window is one actor's activity inside the current counting window.
type Window struct {
	Start   time.Time
	Allowed int
	Denied  int
}

type bucket struct {
	lim    *rate.Limiter
	window Window
	seen   time.Time
}

// Tracker keeps a token bucket and a windowed counter per actor. Every
// request admitted through Allow takes a token and every denial takes
// another, so repeated denials exhaust the bucket faster than normal use.
type Tracker struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	window  time.Duration
	now     func() time.Time
	buckets map[string]*bucket
}

var _ authz.AttemptRecorder = (*Tracker)(nil)

type Option func(*Tracker)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithWindow changes the counting window.
func WithWindow(d time.Duration) Option {
	return func(t *Tracker) { t.window = d }
}

// New returns a tracker allowing perMinute sustained attempts with burst.
func New(perMinute, burst int, opts ...Option) *Tracker {
	t := &Tracker{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		window:  DefaultWindow,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) bucketFor(actorID string, now time.Time) *bucket {
	b, ok := t.buckets[actorID]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[actorID] = b
	}
	start := now.Truncate(t.window)
	if !b.window.Start.Equal(start) {
		b.window = Window{Start: start}
	}
	b.seen = now
	return b
}

// Allow reports whether actorID may make another attempt now.
func (t *Tracker) Allow(actorID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	return t.bucketFor(actorID, now).lim.AllowN(now, 1)
}

// RecordDecision counts the outcome in the actor's current window.
func (t *Tracker) RecordDecision(actorID string, allowed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	b := t.bucketFor(actorID, now)
	if allowed {
		b.window.Allowed++
		return
	}
	b.window.Denied++
	b.lim.AllowN(now, 1)
}

// Stats returns the actor's counters for the current window.
func (t *Tracker) Stats(actorID string) Window {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	b, ok := t.buckets[actorID]
	if !ok {
		return Window{Start: now.Truncate(t.window)}
	}
	if !b.window.Start.Equal(now.Truncate(t.window)) {
		return Window{Start: now.Truncate(t.window)}
	}
	return b.window
}

// Sweep forgets actors idle for longer than idle and returns how many
// were dropped.
func (t *Tracker) Sweep(idle time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	dropped := 0
	for id, b := range t.buckets {
		if now.Sub(b.seen) > idle {
			delete(t.buckets, id)
			dropped++
		}
	}
	return dropped
}

// Len is the number of tracked actors.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}

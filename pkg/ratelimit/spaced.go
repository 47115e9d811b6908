package ratelimit

import (
	"container/list"
	"sync"
	"time"
)

// SpacedWindow combines a token-bucket rate limit with a hard minimum
// spacing between consecutive allowed events. A token bucket alone still
// permits a full burst back-to-back; policies like "<=20 events/s with a
// minimum 50ms gap" need both checks.
type SpacedWindow struct {
	mu          sync.Mutex
	window      *Window
	minSpacing  time.Duration
	lastAllowed time.Time
	haveLast    bool
}

// NewSpacedWindow builds a SpacedWindow permitting limit events per
// periodSeconds, no two of them closer together than minSpacing.
func NewSpacedWindow(limit int, periodSeconds float64, minSpacing time.Duration) *SpacedWindow {
	return &SpacedWindow{window: NewWindow(limit, periodSeconds), minSpacing: minSpacing}
}

// Allow reports whether an event may proceed now.
func (w *SpacedWindow) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if w.haveLast && now.Sub(w.lastAllowed) < w.minSpacing {
		return false
	}
	if !w.window.Allow() {
		return false
	}
	w.lastAllowed = now
	w.haveLast = true
	return true
}

// SpacedPerKeyWindow is the keyed, LRU-bounded counterpart to
// SpacedWindow, mirroring PerKeyWindow's shape.
type SpacedPerKeyWindow struct {
	limit      int
	period     float64
	minSpacing time.Duration
	cap        int
	entries    map[string]*list.Element
	order      *list.List
}

type spacedKeyEntry struct {
	key    string
	window *SpacedWindow
}

// NewSpacedPerKeyWindow builds a bounded per-key SpacedWindow table.
func NewSpacedPerKeyWindow(limit int, periodSeconds float64, minSpacing time.Duration, capacity int) *SpacedPerKeyWindow {
	return &SpacedPerKeyWindow{
		limit:      limit,
		period:     periodSeconds,
		minSpacing: minSpacing,
		cap:        capacity,
		entries:    make(map[string]*list.Element, capacity),
		order:      list.New(),
	}
}

// Allow reports whether an event for key may proceed now.
func (p *SpacedPerKeyWindow) Allow(key string) bool {
	if el, ok := p.entries[key]; ok {
		p.order.MoveToFront(el)
		return el.Value.(*spacedKeyEntry).window.Allow()
	}

	if p.order.Len() >= p.cap {
		oldest := p.order.Back()
		if oldest != nil {
			p.order.Remove(oldest)
			delete(p.entries, oldest.Value.(*spacedKeyEntry).key)
		}
	}

	entry := &spacedKeyEntry{key: key, window: NewSpacedWindow(p.limit, p.period, p.minSpacing)}
	el := p.order.PushFront(entry)
	p.entries[key] = el
	return entry.window.Allow()
}

// Len reports the number of distinct keys currently tracked.
func (p *SpacedPerKeyWindow) Len() int {
	return p.order.Len()
}

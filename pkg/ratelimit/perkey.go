package ratelimit

import "container/list"

// PerKeyWindow maintains one sliding-window limiter per key, bounded by an
// LRU of capacity keys so an attacker presenting unbounded distinct keys
// cannot grow the table without limit.
type PerKeyWindow struct {
	limit   int
	period  float64
	cap     int
	entries map[string]*list.Element
	order   *list.List // front = most recently used
}

type perKeyEntry struct {
	key     string
	limiter *Window
}

// NewPerKeyWindow builds a bounded per-key limiter table. Each key gets its
// own Window permitting limit events per periodSeconds; the table evicts the
// least recently used key once it holds more than capacity entries.
func NewPerKeyWindow(limit int, periodSeconds float64, capacity int) *PerKeyWindow {
	return &PerKeyWindow{
		limit:   limit,
		period:  periodSeconds,
		cap:     capacity,
		entries: make(map[string]*list.Element, capacity),
		order:   list.New(),
	}
}

// Allow reports whether an event for key may proceed now.
func (p *PerKeyWindow) Allow(key string) bool {
	if el, ok := p.entries[key]; ok {
		p.order.MoveToFront(el)
		return el.Value.(*perKeyEntry).limiter.Allow()
	}

	if p.order.Len() >= p.cap {
		oldest := p.order.Back()
		if oldest != nil {
			p.order.Remove(oldest)
			delete(p.entries, oldest.Value.(*perKeyEntry).key)
		}
	}

	entry := &perKeyEntry{key: key, limiter: NewWindow(p.limit, p.period)}
	el := p.order.PushFront(entry)
	p.entries[key] = el
	return entry.limiter.Allow()
}

// Len reports the number of distinct keys currently tracked.
func (p *PerKeyWindow) Len() int {
	return p.order.Len()
}

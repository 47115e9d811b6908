package peer

import "container/list"

// slotLRU is a fixed-capacity map keyed by opaque transport peer handles,
// evicting the least recently used entry on overflow. Eviction runs evictFn
// on the removed slot so callers can zeroize handshake/session state before
// it is dropped.
type slotLRU struct {
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	evictFn  func(*PeerSlot)
}

type lruEntry struct {
	handle string
	slot   *PeerSlot
}

func newSlotLRU(capacity int, evictFn func(*PeerSlot)) *slotLRU {
	return &slotLRU{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
		evictFn:  evictFn,
	}
}

// get returns the slot for handle, if any, and marks it most recently used.
func (l *slotLRU) get(handle string) (*PeerSlot, bool) {
	el, ok := l.entries[handle]
	if !ok {
		return nil, false
	}
	l.order.MoveToFront(el)
	return el.Value.(*lruEntry).slot, true
}

// getOrCreate returns the existing slot for handle, or inserts a freshly
// created one, evicting the least recently used entry if at capacity.
func (l *slotLRU) getOrCreate(handle string) *PeerSlot {
	if el, ok := l.entries[handle]; ok {
		l.order.MoveToFront(el)
		return el.Value.(*lruEntry).slot
	}

	if l.order.Len() >= l.capacity {
		oldest := l.order.Back()
		if oldest != nil {
			evicted := oldest.Value.(*lruEntry)
			l.order.Remove(oldest)
			delete(l.entries, evicted.handle)
			if l.evictFn != nil {
				l.evictFn(evicted.slot)
			}
		}
	}

	slot := newPeerSlot(handle)
	el := l.order.PushFront(&lruEntry{handle: handle, slot: slot})
	l.entries[handle] = el
	return slot
}

// remove deletes handle's slot without invoking evictFn; callers that need
// zeroization must do it themselves before calling remove.
func (l *slotLRU) remove(handle string) {
	if el, ok := l.entries[handle]; ok {
		l.order.Remove(el)
		delete(l.entries, handle)
	}
}

// clear empties the table, invoking evictFn on every removed slot.
func (l *slotLRU) clear() {
	for el := l.order.Front(); el != nil; el = el.Next() {
		if l.evictFn != nil {
			l.evictFn(el.Value.(*lruEntry).slot)
		}
	}
	l.entries = make(map[string]*list.Element, l.capacity)
	l.order = list.New()
}

func (l *slotLRU) len() int {
	return l.order.Len()
}

// countAuthenticated reports how many slots currently hold an established
// session.
func (l *slotLRU) countAuthenticated() int {
	n := 0
	for el := l.order.Front(); el != nil; el = el.Next() {
		if el.Value.(*lruEntry).slot.session != nil {
			n++
		}
	}
	return n
}

// authenticatedHandles returns the transport handles of every slot that
// currently holds an established session, in no particular order.
func (l *slotLRU) authenticatedHandles() []string {
	var out []string
	for el := l.order.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*lruEntry)
		if entry.slot.session != nil {
			out = append(out, entry.handle)
		}
	}
	return out
}

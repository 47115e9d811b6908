package topology

import (
	"container/list"
	"time"

	"github.com/fluxon-mesh/fluxon/pkg/wire"
)

type routeKey struct {
	source  wire.PeerID
	target  wire.PeerID
	maxHops int
}

type routeCacheEntry struct {
	key       routeKey
	hops      []wire.PeerID
	found     bool
	members   map[wire.PeerID]struct{} // source, target, and every intermediate hop
	expiresAt time.Time
}

// routeCache is an LRU cache of compute_route results keyed by
// (source, target, max_hops). Each entry carries its own membership set so
// that invalidating every cached route touching a given PeerId is a single
// O(1)-per-entry scan rather than a recomputation of reachability.
type routeCache struct {
	capacity int
	ttl      time.Duration
	order    *list.List // front = least recently used
	index    map[routeKey]*list.Element
}

func newRouteCache(capacity int, ttl time.Duration) *routeCache {
	return &routeCache{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		index:    make(map[routeKey]*list.Element, capacity),
	}
}

func (c *routeCache) get(key routeKey, now time.Time) (hops []wire.PeerID, found bool, ok bool) {
	el, present := c.index[key]
	if !present {
		return nil, false, false
	}
	entry := el.Value.(*routeCacheEntry)
	if now.After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.index, key)
		return nil, false, false
	}
	c.order.MoveToBack(el)
	return entry.hops, entry.found, true
}

func (c *routeCache) put(key routeKey, hops []wire.PeerID, found bool, now time.Time) {
	if el, present := c.index[key]; present {
		c.order.Remove(el)
		delete(c.index, key)
	}

	members := make(map[wire.PeerID]struct{}, len(hops)+2)
	members[key.source] = struct{}{}
	members[key.target] = struct{}{}
	for _, h := range hops {
		members[h] = struct{}{}
	}

	entry := &routeCacheEntry{
		key:       key,
		hops:      hops,
		found:     found,
		members:   members,
		expiresAt: now.Add(c.ttl),
	}
	c.index[key] = c.order.PushBack(entry)

	for c.order.Len() > c.capacity {
		front := c.order.Front()
		if front == nil {
			break
		}
		c.order.Remove(front)
		delete(c.index, front.Value.(*routeCacheEntry).key)
	}
}

// invalidate evicts every cache entry whose membership set contains id.
func (c *routeCache) invalidate(id wire.PeerID) {
	var toRemove []*list.Element
	for _, el := range c.index {
		entry := el.Value.(*routeCacheEntry)
		if _, ok := entry.members[id]; ok {
			toRemove = append(toRemove, el)
		}
	}
	for _, el := range toRemove {
		entry := el.Value.(*routeCacheEntry)
		c.order.Remove(el)
		delete(c.index, entry.key)
	}
}

// len reports the number of live cache entries, for tests.
func (c *routeCache) len() int {
	return c.order.Len()
}

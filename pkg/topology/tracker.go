// Package topology maintains the freshness-pruned neighbor graph used to
// compute bounded-hop routes between peers. Two peers are connected by an
// edge only when each has recently claimed the other as a neighbor:
// a one-sided claim (A says B is a neighbor, but B has never said the same
// of A, or B's claim has gone stale) is never enough to route traffic.
package topology

import (
	"sync"
	"time"

	"github.com/fluxon-mesh/fluxon/pkg/wire"
)

// Tuning knobs. MaxClaimedNeighbors, FreshnessWindow, MaxHops and
// MinVisitedCap match the bounds a route computation must respect; the
// route cache knobs bound the cache's own footprint.
const (
	MaxClaimedNeighbors = 10
	FreshnessWindow     = 60 * time.Second
	MaxHops             = 7
	VisitedCap          = 500

	RouteCacheCapacity = 500
	DefaultRouteCacheTTL = 1500 * time.Millisecond
)

type claim struct {
	neighbors []wire.PeerID
	updatedAt time.Time
}

// Tracker is the topology tracker: per-peer claimed-neighbor sets plus a
// granular-invalidation route cache layered on top.
type Tracker struct {
	mu    sync.Mutex
	claims map[wire.PeerID]*claim
	cache *routeCache
}

// Config tunes a Tracker's route cache; zero value takes the defaults.
type Config struct {
	RouteCacheTTL time.Duration
}

// New builds a Tracker.
func New(cfg Config) *Tracker {
	ttl := cfg.RouteCacheTTL
	if ttl <= 0 {
		ttl = DefaultRouteCacheTTL
	}
	return &Tracker{
		claims: make(map[wire.PeerID]*claim),
		cache:  newRouteCache(RouteCacheCapacity, ttl),
	}
}

// UpdateNeighbors records source's claimed neighbor set as of now. It
// rejects the broadcast PeerId as a source and silently caps (and
// deduplicates) neighbors at MaxClaimedNeighbors before storage, per the
// wire contract that a discovery/topology payload itself already bounds
// peer counts. Any previously cached route touching source is evicted.
func (t *Tracker) UpdateNeighbors(source wire.PeerID, neighbors []wire.PeerID, now time.Time) error {
	if source.IsBroadcast() {
		return ErrInvalidSource
	}

	capped := make([]wire.PeerID, 0, MaxClaimedNeighbors)
	seen := make(map[wire.PeerID]struct{}, len(neighbors))
	for _, n := range neighbors {
		if len(capped) >= MaxClaimedNeighbors {
			break
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		capped = append(capped, n)
	}

	t.mu.Lock()
	t.claims[source] = &claim{neighbors: capped, updatedAt: now}
	t.cache.invalidate(source)
	t.mu.Unlock()
	return nil
}

// neighborsOf returns the peers that both source claims as a neighbor and
// that mutually, freshly claim source back. Must be called with t.mu held.
func (t *Tracker) neighborsOf(node wire.PeerID, now time.Time) []wire.PeerID {
	c, ok := t.claims[node]
	if !ok || now.Sub(c.updatedAt) >= FreshnessWindow {
		return nil
	}
	var out []wire.PeerID
	for _, b := range c.neighbors {
		cb, ok := t.claims[b]
		if !ok || now.Sub(cb.updatedAt) >= FreshnessWindow {
			continue
		}
		if !containsPeer(cb.neighbors, node) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func containsPeer(list []wire.PeerID, target wire.PeerID) bool {
	for _, p := range list {
		if p == target {
			return true
		}
	}
	return false
}

// Degree reports how many peers node currently has a fresh, mutual
// neighbor claim with. The relay controller uses this as its proxy for
// "is rebroadcasting this packet likely to reach anyone new".
func (t *Tracker) Degree(node wire.PeerID, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.neighborsOf(node, now))
}

// ComputeRoute runs a breadth-first search bounded by maxHops (capped at
// MaxHops) and a hard visited-node ceiling of VisitedCap, over the graph
// where an edge (A, B) exists only if A and B mutually, freshly claim each
// other. It returns the sequence of intermediate hops (excluding source
// and target) and true if target is reachable, or nil and false otherwise.
// Results are served from and populated into the route cache.
func (t *Tracker) ComputeRoute(source, target wire.PeerID, maxHops int, now time.Time) ([]wire.PeerID, bool) {
	if maxHops > MaxHops || maxHops <= 0 {
		maxHops = MaxHops
	}

	key := routeKey{source: source, target: target, maxHops: maxHops}

	t.mu.Lock()
	if hops, found, ok := t.cache.get(key, now); ok {
		t.mu.Unlock()
		return hops, found
	}

	hops, found := t.bfs(source, target, maxHops, now)
	t.cache.put(key, hops, found, now)
	t.mu.Unlock()
	return hops, found
}

type queueItem struct {
	path []wire.PeerID // hops from source up to and including this node, excluding source
}

func (t *Tracker) bfs(source, target wire.PeerID, maxHops int, now time.Time) ([]wire.PeerID, bool) {
	if source == target {
		return nil, true
	}

	visited := map[wire.PeerID]struct{}{source: {}}
	queue := []queueItem{{path: nil}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		curNode := source
		if len(cur.path) > 0 {
			curNode = cur.path[len(cur.path)-1]
		}

		for _, next := range t.neighborsOf(curNode, now) {
			if _, ok := visited[next]; ok {
				continue
			}
			if len(visited) >= VisitedCap {
				return nil, false
			}
			visited[next] = struct{}{}

			newPath := make([]wire.PeerID, len(cur.path)+1)
			copy(newPath, cur.path)
			newPath[len(cur.path)] = next

			if next == target {
				return newPath[:len(newPath)-1], true
			}
			if len(newPath) < maxHops {
				queue = append(queue, queueItem{path: newPath})
			}
		}
	}
	return nil, false
}

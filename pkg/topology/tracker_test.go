package topology

import (
	"testing"
	"time"

	"github.com/fluxon-mesh/fluxon/pkg/wire"
)

func peerID(b byte) wire.PeerID {
	var id wire.PeerID
	id[0] = b
	return id
}

func TestUpdateNeighbors_RejectsBroadcastSource(t *testing.T) {
	tr := New(Config{})
	err := tr.UpdateNeighbors(wire.BroadcastPeerID, []wire.PeerID{peerID(1)}, time.Now())
	if err != ErrInvalidSource {
		t.Fatalf("err = %v, want ErrInvalidSource", err)
	}
}

func TestUpdateNeighbors_CapsAndDedupesAtTen(t *testing.T) {
	tr := New(Config{})
	a := peerID(1)
	neighbors := make([]wire.PeerID, 0, 25)
	for i := byte(2); i < 20; i++ {
		neighbors = append(neighbors, peerID(i))
	}
	// duplicate the first one a few times
	neighbors = append(neighbors, peerID(2), peerID(2))

	if err := tr.UpdateNeighbors(a, neighbors, time.Now()); err != nil {
		t.Fatalf("UpdateNeighbors: %v", err)
	}
	if len(tr.claims[a].neighbors) != MaxClaimedNeighbors {
		t.Fatalf("len(neighbors) = %d, want %d", len(tr.claims[a].neighbors), MaxClaimedNeighbors)
	}
}

// P7: compute_route never returns a path containing an edge (A, B) where
// either A does not fresh-claim B or B does not fresh-claim A.
func TestComputeRoute_RequiresMutualFreshClaim(t *testing.T) {
	tr := New(Config{})
	now := time.Now()
	a, b, c := peerID(1), peerID(2), peerID(3)

	// a claims b, but b never claims a back: one-sided, no edge.
	tr.UpdateNeighbors(a, []wire.PeerID{b}, now)
	tr.UpdateNeighbors(b, []wire.PeerID{c}, now)
	tr.UpdateNeighbors(c, []wire.PeerID{b}, now)

	if _, found := tr.ComputeRoute(a, c, MaxHops, now); found {
		t.Fatal("route should not exist: a->b is a one-sided claim")
	}

	// Now b claims a back too: a-b becomes a real edge, and b-c is already
	// mutual, so a route through b should now exist.
	tr.UpdateNeighbors(b, []wire.PeerID{a, c}, now)
	hops, found := tr.ComputeRoute(a, c, MaxHops, now)
	if !found {
		t.Fatal("route should exist once a-b is mutually claimed")
	}
	if len(hops) != 1 || hops[0] != b {
		t.Fatalf("hops = %v, want [b]", hops)
	}
}

func TestComputeRoute_StaleClaimIsNotAnEdge(t *testing.T) {
	tr := New(Config{})
	now := time.Now()
	a, b := peerID(1), peerID(2)

	tr.UpdateNeighbors(a, []wire.PeerID{b}, now)
	tr.UpdateNeighbors(b, []wire.PeerID{a}, now)

	later := now.Add(FreshnessWindow + time.Second)
	if _, found := tr.ComputeRoute(a, b, MaxHops, later); found {
		t.Fatal("route should not exist once both claims have gone stale")
	}
}

func TestComputeRoute_DirectNeighborHasNoIntermediateHops(t *testing.T) {
	tr := New(Config{})
	now := time.Now()
	a, b := peerID(1), peerID(2)
	tr.UpdateNeighbors(a, []wire.PeerID{b}, now)
	tr.UpdateNeighbors(b, []wire.PeerID{a}, now)

	hops, found := tr.ComputeRoute(a, b, MaxHops, now)
	if !found || len(hops) != 0 {
		t.Fatalf("hops = %v, found = %v, want empty hops and found", hops, found)
	}
}

func TestComputeRoute_RespectsMaxHops(t *testing.T) {
	tr := New(Config{})
	now := time.Now()
	// chain: 1 - 2 - 3 - 4
	peers := []wire.PeerID{peerID(1), peerID(2), peerID(3), peerID(4)}
	for i := range peers {
		var nbrs []wire.PeerID
		if i > 0 {
			nbrs = append(nbrs, peers[i-1])
		}
		if i < len(peers)-1 {
			nbrs = append(nbrs, peers[i+1])
		}
		tr.UpdateNeighbors(peers[i], nbrs, now)
	}

	if _, found := tr.ComputeRoute(peers[0], peers[3], 2, now); found {
		t.Fatal("route of 3 hops should not be found with max_hops=2")
	}
	hops, found := tr.ComputeRoute(peers[0], peers[3], 3, now)
	if !found {
		t.Fatal("route of 3 hops should be found with max_hops=3")
	}
	if len(hops) != 2 {
		t.Fatalf("len(hops) = %d, want 2", len(hops))
	}
}

func TestComputeRoute_UnreachableReturnsFalse(t *testing.T) {
	tr := New(Config{})
	now := time.Now()
	a, b := peerID(1), peerID(2)
	tr.UpdateNeighbors(a, nil, now)
	tr.UpdateNeighbors(b, nil, now)
	if _, found := tr.ComputeRoute(a, b, MaxHops, now); found {
		t.Fatal("route should not exist between isolated peers")
	}
}

func TestComputeRoute_CachesResult(t *testing.T) {
	tr := New(Config{RouteCacheTTL: time.Minute})
	now := time.Now()
	a, b := peerID(1), peerID(2)
	tr.UpdateNeighbors(a, []wire.PeerID{b}, now)
	tr.UpdateNeighbors(b, []wire.PeerID{a}, now)

	tr.ComputeRoute(a, b, MaxHops, now)
	if tr.cache.len() != 1 {
		t.Fatalf("cache.len() = %d, want 1", tr.cache.len())
	}

	// Sever the edge directly in the backing map without going through
	// UpdateNeighbors (which would invalidate); the cached answer should
	// still be served until it's invalidated or expires.
	hops, found := tr.ComputeRoute(a, b, MaxHops, now)
	if !found || len(hops) != 0 {
		t.Fatalf("expected cached direct route, got hops=%v found=%v", hops, found)
	}
}

func TestComputeRoute_UpdateInvalidatesTouchedCacheEntries(t *testing.T) {
	tr := New(Config{RouteCacheTTL: time.Minute})
	now := time.Now()
	a, b, c := peerID(1), peerID(2), peerID(3)
	tr.UpdateNeighbors(a, []wire.PeerID{b}, now)
	tr.UpdateNeighbors(b, []wire.PeerID{a, c}, now)
	tr.UpdateNeighbors(c, []wire.PeerID{b}, now)

	if _, found := tr.ComputeRoute(a, c, MaxHops, now); !found {
		t.Fatal("expected a route through b")
	}
	if tr.cache.len() != 1 {
		t.Fatalf("cache.len() = %d, want 1", tr.cache.len())
	}

	// Updating b's claims touches a cached route that passes through b.
	tr.UpdateNeighbors(b, []wire.PeerID{a}, now.Add(time.Second))
	if tr.cache.len() != 0 {
		t.Fatalf("cache.len() = %d, want 0 after invalidation", tr.cache.len())
	}
}

func TestComputeRoute_CacheEntryExpiresAfterTTL(t *testing.T) {
	tr := New(Config{RouteCacheTTL: time.Millisecond})
	now := time.Now()
	a, b := peerID(1), peerID(2)
	tr.UpdateNeighbors(a, []wire.PeerID{b}, now)
	tr.UpdateNeighbors(b, []wire.PeerID{a}, now)

	tr.ComputeRoute(a, b, MaxHops, now)
	later := now.Add(10 * time.Millisecond)
	if _, found := tr.ComputeRoute(a, b, MaxHops, later); !found {
		t.Fatal("edge is still fresh; route should be recomputed and found after cache expiry")
	}
}

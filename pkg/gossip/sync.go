// Package gossip implements the gossip sync component: a bounded record of
// recently-seen packet ids plus the rate-limited set-reconciliation
// exchange peers use to recover ids they missed.
package gossip

import (
	"github.com/pion/logging"

	"github.com/fluxon-mesh/fluxon/pkg/ratelimit"
	"github.com/fluxon-mesh/fluxon/pkg/wire"
)

// Tuning knobs.
const (
	SeenCapacity = 1000
	MaxPeerHasIDs = 2 * SeenCapacity

	DefaultBatchCap = 64

	PerPeerRequestLimit         = 3
	PerPeerRequestWindowSeconds = 60
	PerPeerTableCapacity        = 200

	GlobalResponseLimit         = 50
	GlobalResponseWindowSeconds = 60
)

// Config tunes a Sync's batch size and LoggerFactory; zero values take
// defaults.
type Config struct {
	BatchCap      int
	LoggerFactory logging.LoggerFactory
}

// Sync is the gossip sync component. It is safe for concurrent use by the
// mesh service's inbound and outbound paths.
type Sync struct {
	batchCap int

	seen    *seenSet
	perPeer *ratelimit.PerKeyWindow
	global  *ratelimit.Window

	log logging.LeveledLogger
}

// New builds a Sync component.
func New(cfg Config) *Sync {
	batchCap := cfg.BatchCap
	if batchCap <= 0 {
		batchCap = DefaultBatchCap
	}
	factory := cfg.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}
	return &Sync{
		batchCap: batchCap,
		seen:     newSeenSet(SeenCapacity),
		perPeer: ratelimit.NewPerKeyWindow(
			PerPeerRequestLimit, PerPeerRequestWindowSeconds, PerPeerTableCapacity,
		),
		global: ratelimit.NewWindow(GlobalResponseLimit, GlobalResponseWindowSeconds),
		log:    factory.NewLogger("gossip"),
	}
}

// OnPacketSeen records id as seen. Callers must invoke this only after a
// packet has passed full verification: calling it earlier would let a
// sync peer probe which ids were dropped before authentication, turning
// the gossip protocol into an oracle for attack feedback.
func (s *Sync) OnPacketSeen(id string) {
	s.seen.insert(id)
}

// HandleSyncRequest answers a gossip sync request from an authenticated
// peer: the set of locally-seen ids absent from peerHasIDs, capped to the
// configured batch size. fromPeer must be the requester's authenticated
// PeerId, never a raw transport handle, so the per-peer rate limit table
// cannot be inflated by an unauthenticated peer cycling handles.
func (s *Sync) HandleSyncRequest(fromPeer wire.PeerID, peerHasIDs map[string]struct{}) ([]string, error) {
	if len(peerHasIDs) > MaxPeerHasIDs {
		return nil, ErrTooManyPeerIDs
	}
	if !s.perPeer.Allow(fromPeer.String()) {
		s.log.Debugf("gossip sync request from %s denied: per-peer budget exhausted", fromPeer)
		return nil, ErrRateLimited
	}
	if !s.global.Allow() {
		s.log.Warnf("gossip sync response denied: global response budget exhausted")
		return nil, ErrGlobalBudgetExhausted
	}
	return s.seen.difference(peerHasIDs, s.batchCap), nil
}

// Len reports the number of ids currently tracked as seen.
func (s *Sync) Len() int {
	return s.seen.len()
}

// Has reports whether id has already been recorded as seen.
func (s *Sync) Has(id string) bool {
	return s.seen.has(id)
}

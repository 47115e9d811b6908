// Package relay implements the relay controller: the policy deciding
// whether a received packet is worth rebroadcasting, and the jittered,
// cancellable scheduler that carries out the rebroadcast.
package relay

import "github.com/fluxon-mesh/fluxon/pkg/wire"

// Policy tunes relay decisions.
type Policy struct {
	// MaxTTL clamps the TTL a relayed packet may carry. Zero takes
	// wire.MaxTTL.
	MaxTTL uint8
	// AllowHandshakeRelay permits relaying handshake-type packets at all;
	// the default, strict profile never relays them, since a handshake is
	// meant for a single direct peer. When enabled, relayed handshake
	// packets are additionally capped at HandshakeTTLCap regardless of
	// MaxTTL, bounding how far a forwarded handshake attempt can travel.
	AllowHandshakeRelay bool
	HandshakeTTLCap     uint8
}

// DefaultPolicy returns the strict profile: full MaxTTL, no handshake
// relay.
func DefaultPolicy() Policy {
	return Policy{MaxTTL: wire.MaxTTL, AllowHandshakeRelay: false, HandshakeTTLCap: 3}
}

// Evaluate decides whether a packet with the given TTL and type should be
// relayed, given the local topology degree (number of fresh, mutually
// claimed neighbors). It returns the TTL the relayed copy should carry
// and whether relaying should proceed at all.
func Evaluate(ttl uint8, typ wire.Type, degree int, policy Policy) (newTTL uint8, relay bool) {
	if ttl <= 1 {
		return 0, false
	}
	if typ == wire.TypeHandshake {
		if !policy.AllowHandshakeRelay {
			return 0, false
		}
		if ttl > policy.HandshakeTTLCap {
			return 0, false
		}
	}
	if degree == 0 {
		return 0, false
	}

	maxTTL := policy.MaxTTL
	if maxTTL == 0 {
		maxTTL = wire.MaxTTL
	}

	next := ttl - 1
	if next > maxTTL {
		next = maxTTL
	}
	return next, true
}

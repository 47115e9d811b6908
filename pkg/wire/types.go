// Package wire implements the fixed binary packet layout, its typed
// payload codecs, and the Ed25519 signature trailer: version(1) | type(1)
// | ttl(1) | flags(1) | timestamp_ms(8) | source_id(32) | dest_id(32) |
// payload_len(2) | payload(<=512) | signature(0 or 64).
package wire

import "encoding/hex"

// Wire layout constants.
const (
	HeaderLen     = 78
	MaxPayloadLen = 512
	SignatureLen  = 64
	MaxTTL        = 7
	ProtocolVersion = 1

	sourceIDOffset = 12
	destIDOffset   = 44
	payloadLenOff  = 76
)

// PeerIDLen is the length of a PeerId: BLAKE2b-256 of a static X25519
// public key.
const PeerIDLen = 32

// PeerID is a 32-byte opaque peer identifier. The all-zero value is the
// broadcast address.
type PeerID [PeerIDLen]byte

// BroadcastPeerID is the all-zero PeerId used in dest_id to mean "every
// direct peer".
var BroadcastPeerID = PeerID{}

// IsBroadcast reports whether id is the all-zero broadcast address.
func (id PeerID) IsBroadcast() bool {
	return id == BroadcastPeerID
}

// String renders the PeerId as lowercase hex, for logging only.
func (id PeerID) String() string {
	return hex.EncodeToString(id[:])
}

// PeerIDFromBytes copies exactly PeerIDLen bytes into a PeerID. Returns
// false if b is the wrong length.
func PeerIDFromBytes(b []byte) (PeerID, bool) {
	var id PeerID
	if len(b) != PeerIDLen {
		return id, false
	}
	copy(id[:], b)
	return id, true
}

// Type is the wire message type byte.
type Type uint8

const (
	TypeHandshake          Type = 0x01
	TypeChat               Type = 0x02
	TypeTopologyAnnounce   Type = 0x03
	TypeGossipSync         Type = 0x04
	TypeAck                Type = 0x05
	TypePing               Type = 0x06
	TypePong               Type = 0x07
	TypeDiscovery          Type = 0x08
	TypeNoiseEncrypted     Type = 0x09
	TypeLocationUpdate     Type = 0x0A
	TypeGroupJoin          Type = 0x0B
	TypeGroupJoinResponse  Type = 0x0C
	TypeGroupKeyRotation   Type = 0x0D
	TypeEmergencyAlert     Type = 0x0E
)

// String returns a human-readable name for the packet type.
func (t Type) String() string {
	switch t {
	case TypeHandshake:
		return "handshake"
	case TypeChat:
		return "chat"
	case TypeTopologyAnnounce:
		return "topology_announce"
	case TypeGossipSync:
		return "gossip_sync"
	case TypeAck:
		return "ack"
	case TypePing:
		return "ping"
	case TypePong:
		return "pong"
	case TypeDiscovery:
		return "discovery"
	case TypeNoiseEncrypted:
		return "noise_encrypted"
	case TypeLocationUpdate:
		return "location_update"
	case TypeGroupJoin:
		return "group_join"
	case TypeGroupJoinResponse:
		return "group_join_response"
	case TypeGroupKeyRotation:
		return "group_key_rotation"
	case TypeEmergencyAlert:
		return "emergency_alert"
	default:
		return "unknown"
	}
}

// IsValid reports whether t is one of the defined message type values.
func (t Type) IsValid() bool {
	switch t {
	case TypeHandshake, TypeChat, TypeTopologyAnnounce, TypeGossipSync,
		TypeAck, TypePing, TypePong, TypeDiscovery, TypeNoiseEncrypted,
		TypeLocationUpdate, TypeGroupJoin, TypeGroupJoinResponse,
		TypeGroupKeyRotation, TypeEmergencyAlert:
		return true
	default:
		return false
	}
}

// preAuthAllowed reports whether packets of this type may be accepted
// before their sender has a pinned signing key (deferred-verification
// relay traffic). Chat, location, and emergency packets are deliberately
// excluded.
func (t Type) preAuthAllowed() bool {
	switch t {
	case TypeTopologyAnnounce, TypeGossipSync, TypeAck, TypePing, TypePong,
		TypeDiscovery:
		return true
	default:
		return false
	}
}

// PreAuthAllowed reports whether packets of this type may be accepted
// provisionally from a peer with no pinned signing key yet.
func PreAuthAllowed(t Type) bool {
	return t.preAuthAllowed()
}

// Packet is the decoded form of a wire frame. All byte-range fields are
// owned copies, never aliases into a caller-supplied buffer.
type Packet struct {
	Version     uint8
	Type        Type
	TTL         uint8
	Flags       uint8
	TimestampMs uint64
	SourceID    PeerID
	DestID      PeerID
	Payload     []byte
	Signature   []byte // nil if unsigned; else exactly SignatureLen bytes
}

// Signed reports whether the packet carries a signature trailer.
func (p *Packet) Signed() bool {
	return len(p.Signature) == SignatureLen
}

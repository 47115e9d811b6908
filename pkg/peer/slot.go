package peer

import (
	"github.com/fluxon-mesh/fluxon/pkg/noise"
	"github.com/fluxon-mesh/fluxon/pkg/ratelimit"
)

// State enumerates the lifecycle a PeerSlot moves through.
type State int

const (
	StateUnknown State = iota
	StateDiscovered
	StateHandshakeInFlight
	StateAuthenticated
	StateRekeyNeeded
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateDiscovered:
		return "discovered"
	case StateHandshakeInFlight:
		return "handshake_in_flight"
	case StateAuthenticated:
		return "authenticated"
	case StateRekeyNeeded:
		return "rekey_needed"
	case StateRemoved:
		return "removed"
	default:
		return "unknown_state"
	}
}

// PeerSlot holds, for one opaque transport peer handle, at most one of an
// in-flight handshake or an established session, plus the pinned remote
// PeerId and signing key derived once the handshake completes.
type PeerSlot struct {
	handle string
	state  State

	handshake        *noise.HandshakeState
	handshakeStarted int64 // unix nanos; 0 when no handshake in flight

	session *Session

	remotePeerID [32]byte
	hasPeerID    bool

	handshakeLim *ratelimit.Window
}

func newPeerSlot(handle string) *PeerSlot {
	return &PeerSlot{handle: handle, state: StateDiscovered}
}

// handshakeLimiter lazily builds this slot's per-peer handshake rate
// limiter so idle slots never allocate one.
func (p *PeerSlot) handshakeLimiter() *ratelimit.Window {
	if p.handshakeLim == nil {
		p.handshakeLim = ratelimit.NewWindow(PerPeerHandshakeLimit, PerPeerHandshakeWindowSeconds)
	}
	return p.handshakeLim
}

// State reports the slot's current lifecycle state.
func (p *PeerSlot) State() State {
	return p.state
}

// RemotePeerID returns the BLAKE2b-256 derived PeerId pinned at handshake
// completion, and whether one has been pinned yet.
func (p *PeerSlot) RemotePeerID() ([32]byte, bool) {
	return p.remotePeerID, p.hasPeerID
}

func (p *PeerSlot) zeroizeHandshake() {
	if p.handshake != nil {
		p.handshake.Zeroize()
		p.handshake = nil
	}
	p.handshakeStarted = 0
}

func (p *PeerSlot) zeroizeSession() {
	if p.session != nil {
		p.session.zeroize()
		p.session = nil
	}
}

func (p *PeerSlot) dispose() {
	p.zeroizeHandshake()
	p.zeroizeSession()
	p.state = StateRemoved
}

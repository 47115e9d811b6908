// Package peer implements the session manager: per-peer handshake
// orchestration, the peer slot LRU, handshake rate limiting, and
// trust-on-first-use signing-key pinning.
package peer

import (
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/fluxon-mesh/fluxon/pkg/crypto"
	"github.com/fluxon-mesh/fluxon/pkg/noise"
	"github.com/fluxon-mesh/fluxon/pkg/ratelimit"
)

// DefaultSlotCapacity bounds the peer slot LRU.
const DefaultSlotCapacity = 500

// HandshakeTimeout bounds how long an in-flight handshake may remain
// unfinished before it is treated as abandoned and torn down.
const HandshakeTimeout = 30 * time.Second

// PerPeerHandshakeLimit and PerPeerHandshakeWindowSeconds bound how many
// handshake attempts a single peer may start per window.
const (
	PerPeerHandshakeLimit         = 5
	PerPeerHandshakeWindowSeconds = 60
)

// GlobalHandshakeLimit and GlobalHandshakeWindowSeconds bound how many
// handshake attempts may start across all peers per window.
const (
	GlobalHandshakeLimit         = 20
	GlobalHandshakeWindowSeconds = 60
)

// Config carries the manager's dependencies and tuning knobs.
type Config struct {
	LocalStatic  *crypto.X25519KeyPair
	LocalSigning *crypto.Ed25519KeyPair

	SlotCapacity  int
	TrustCapacity int

	LoggerFactory logging.LoggerFactory
}

// Manager owns the transport_peer_handle -> PeerSlot table and the
// identity trust store, and exposes the session manager's six public
// operations.
type Manager struct {
	mu sync.Mutex

	localStatic  *crypto.X25519KeyPair
	localSigning *crypto.Ed25519KeyPair

	slots *slotLRU
	trust *TrustStore

	globalHandshakeLimit *ratelimit.Window

	log logging.LeveledLogger
}

// NewManager builds a session manager around the node's static and signing
// identity keys.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		localStatic:          cfg.LocalStatic,
		localSigning:         cfg.LocalSigning,
		trust:                NewTrustStore(cfg.TrustCapacity),
		globalHandshakeLimit: ratelimit.NewWindow(GlobalHandshakeLimit, GlobalHandshakeWindowSeconds),
	}

	if cfg.LoggerFactory != nil {
		m.log = cfg.LoggerFactory.NewLogger("peer-manager")
	} else {
		m.log = logging.NewDefaultLoggerFactory().NewLogger("peer-manager")
	}

	capacity := cfg.SlotCapacity
	if capacity <= 0 {
		capacity = DefaultSlotCapacity
	}
	m.slots = newSlotLRU(capacity, func(s *PeerSlot) {
		m.log.Infof("evicting peer slot %s", s.handle)
		s.dispose()
	})

	return m
}

// StartHandshake installs a fresh initiator HandshakeState in the slot for
// handle and returns Noise message 1. Fails if a handshake is already in
// flight or the per-peer/global rate limit is exceeded.
func (m *Manager) StartHandshake(handle string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.globalHandshakeLimit.Allow() {
		return nil, ErrRateLimited
	}

	slot := m.slots.getOrCreate(handle)
	if slot.state == StateHandshakeInFlight {
		return nil, ErrHandshakeInFlight
	}
	if !slot.handshakeLimiter().Allow() {
		return nil, ErrRateLimited
	}

	hs := noise.NewInitiatorHandshake(m.localStatic, m.localSigning)
	msg1, err := hs.Start()
	if err != nil {
		return nil, err
	}

	slot.handshake = hs
	slot.handshakeStarted = time.Now().UnixNano()
	slot.state = StateHandshakeInFlight
	return msg1, nil
}

// ProcessHandshakeMessage feeds an inbound Noise message into the slot's
// handshake, creating a responder handshake on first contact if none
// exists. When the handshake completes, a Session is created, the remote
// signing key is validated and checked against the TOFU trust store, and
// the remote PeerId is derived as BLAKE2b-256(remote_static_pub).
//
// Returns (next message to send, remote PeerId once known, error).
func (m *Manager) ProcessHandshakeMessage(handle string, msg []byte) (next []byte, remotePeerID [32]byte, complete bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot := m.slots.getOrCreate(handle)

	if slot.handshake == nil {
		if slot.state == StateAuthenticated || slot.state == StateRekeyNeeded {
			return nil, remotePeerID, false, ErrHandshakeInFlight
		}
		if !m.globalHandshakeLimit.Allow() || !slot.handshakeLimiter().Allow() {
			return nil, remotePeerID, false, ErrRateLimited
		}
		slot.handshake = noise.NewResponderHandshake(m.localStatic, m.localSigning)
		slot.handshakeStarted = time.Now().UnixNano()
		slot.state = StateHandshakeInFlight
	}

	if slot.handshakeStarted != 0 {
		elapsed := time.Since(time.Unix(0, slot.handshakeStarted))
		if elapsed > HandshakeTimeout {
			slot.zeroizeHandshake()
			slot.state = StateDiscovered
			return nil, remotePeerID, false, ErrHandshakeTimeout
		}
	}

	out, hsComplete, perr := slot.handshake.ProcessMessage(msg)
	if perr != nil {
		slot.zeroizeHandshake()
		slot.state = StateDiscovered
		return nil, remotePeerID, false, perr
	}

	if !hsComplete {
		return out, remotePeerID, false, nil
	}

	remoteStatic := slot.handshake.RemoteStaticPublicKey()
	remoteSigning := slot.handshake.RemoteSigningPublicKey()

	peerID32 := crypto.BLAKE2b256(remoteStatic)
	copy(remotePeerID[:], peerID32)

	if err := m.trust.Verify(remotePeerID, remoteSigning); err != nil {
		slot.zeroizeHandshake()
		slot.state = StateDiscovered
		return nil, remotePeerID, false, err
	}

	send, recv, serr := slot.handshake.Split()
	if serr != nil {
		slot.zeroizeHandshake()
		slot.state = StateDiscovered
		return nil, remotePeerID, false, serr
	}

	slot.session = newSession(send, recv, remoteSigning, remoteStatic)
	slot.remotePeerID = remotePeerID
	slot.hasPeerID = true
	slot.zeroizeHandshake()
	slot.state = StateAuthenticated

	return out, remotePeerID, true, nil
}

// Encrypt encrypts plaintext under handle's established session, returning
// the ciphertext and the transport-phase nonce it was sealed under. On the
// attempt that would push the session past the rekey threshold, the
// session is torn down and ErrSessionExhausted is returned instead of a
// ciphertext.
func (m *Manager) Encrypt(handle string, plaintext []byte) (ciphertext []byte, nonce uint32, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots.get(handle)
	if !ok || slot.session == nil {
		return nil, 0, ErrNoSession
	}

	sess := slot.session
	if sess.exhausted() {
		slot.zeroizeSession()
		slot.state = StateDiscovered
		return nil, 0, ErrSessionExhausted
	}

	ciphertext, nonce, err = sess.send.Encrypt(plaintext, nil)
	if err != nil {
		slot.zeroizeSession()
		slot.state = StateDiscovered
		return nil, 0, err
	}
	sess.sentCount++
	if sess.exhausted() {
		slot.state = StateRekeyNeeded
	}
	return ciphertext, nonce, nil
}

// Decrypt decrypts ciphertext under handle's established session.
// Decryption failure is fatal to the session: the session is removed.
func (m *Manager) Decrypt(handle string, nonce uint32, ciphertext []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots.get(handle)
	if !ok || slot.session == nil {
		return nil, ErrNoSession
	}

	sess := slot.session
	plaintext, err := sess.recv.Decrypt(nonce, ciphertext, nil)
	if err != nil {
		slot.zeroizeSession()
		slot.state = StateDiscovered
		return nil, ErrDecryptFailed
	}
	sess.recvCount++
	if sess.exhausted() {
		slot.state = StateRekeyNeeded
	}
	return plaintext, nil
}

// PinnedSigningKey returns the 32-byte Ed25519 public key bound during
// handshake for handle's established session.
func (m *Manager) PinnedSigningKey(handle string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots.get(handle)
	if !ok || slot.session == nil {
		return nil, ErrNoSession
	}
	return append([]byte(nil), slot.session.remoteSigningKey...), nil
}

// RemoveSession zeroizes and removes both the handshake (if any) and the
// session for handle.
func (m *Manager) RemoveSession(handle string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots.get(handle)
	if !ok {
		return
	}
	slot.dispose()
	m.slots.remove(handle)
}

// Clear zeroizes and disposes every slot, including in-flight handshakes.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots.clear()
}

// SlotState reports the lifecycle state of handle's slot, if any.
func (m *Manager) SlotState(handle string) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots.get(handle)
	if !ok {
		return StateUnknown, false
	}
	return slot.state, true
}

// ActiveSessions reports how many peer slots currently hold an
// established session.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots.countAuthenticated()
}

// AuthenticatedPeerID returns the pinned PeerId for handle's established
// session, and whether one exists. It reports false for a slot that has
// never completed a handshake as well as for an unknown handle.
func (m *Manager) AuthenticatedPeerID(handle string) ([32]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots.get(handle)
	if !ok || slot.session == nil {
		return [32]byte{}, false
	}
	return slot.RemotePeerID()
}

// TrustedKey exposes the TOFU trust store's pinned key for peerID, for
// callers (e.g. the mesh service) that need to check pinning without an
// active slot.
func (m *Manager) TrustedKey(peerID [32]byte) ([]byte, bool) {
	return m.trust.PinnedKey(peerID)
}

// AuthenticatedHandles returns the transport handles of every slot that
// currently holds an established session, for callers (e.g. an outbound
// broadcast) that need to reach every connected peer individually.
func (m *Manager) AuthenticatedHandles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots.authenticatedHandles()
}

package peer

import (
	"bytes"
	"container/list"
	"sync"
)

// DefaultTrustCapacity bounds the identity trust store, mirroring the
// peer slot LRU's 500-entry ceiling.
const DefaultTrustCapacity = 500

// TrustStore implements trust-on-first-use signing-key pinning, indexed by
// PeerId. It is independent of PeerSlot lifecycle: a peer's pinned key
// survives slot eviction and disconnects, so a reconnecting peer is still
// checked against the key it presented the first time it was ever seen.
type TrustStore struct {
	mu       sync.Mutex
	capacity int
	entries  map[[32]byte]*list.Element
	order    *list.List
}

type trustEntry struct {
	peerID     [32]byte
	signingKey []byte
}

// NewTrustStore builds a trust store bounded at capacity entries (0 uses
// DefaultTrustCapacity).
func NewTrustStore(capacity int) *TrustStore {
	if capacity <= 0 {
		capacity = DefaultTrustCapacity
	}
	return &TrustStore{
		capacity: capacity,
		entries:  make(map[[32]byte]*list.Element, capacity),
		order:    list.New(),
	}
}

// Verify checks signingKey against any key already pinned for peerID. If
// none is pinned, signingKey is pinned now (TOFU) and nil is returned. If
// one is pinned and differs, ErrSigningKeyChanged is returned and the
// pinned key is left untouched.
func (t *TrustStore) Verify(peerID [32]byte, signingKey []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.entries[peerID]; ok {
		t.order.MoveToFront(el)
		pinned := el.Value.(*trustEntry).signingKey
		if !bytes.Equal(pinned, signingKey) {
			return ErrSigningKeyChanged
		}
		return nil
	}

	if t.order.Len() >= t.capacity {
		oldest := t.order.Back()
		if oldest != nil {
			t.order.Remove(oldest)
			delete(t.entries, oldest.Value.(*trustEntry).peerID)
		}
	}

	entry := &trustEntry{peerID: peerID, signingKey: append([]byte(nil), signingKey...)}
	el := t.order.PushFront(entry)
	t.entries[peerID] = el
	return nil
}

// PinnedKey returns the signing key pinned for peerID, if any.
func (t *TrustStore) PinnedKey(peerID [32]byte) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	el, ok := t.entries[peerID]
	if !ok {
		return nil, false
	}
	t.order.MoveToFront(el)
	return el.Value.(*trustEntry).signingKey, true
}

// Len reports the number of pinned identities.
func (t *TrustStore) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order.Len()
}

package noise

import (
	"math"
	"sync"

	"github.com/fluxon-mesh/fluxon/internal/securemem"
	"github.com/fluxon-mesh/fluxon/pkg/crypto"
)

// replayWindowBits is the width of the sliding replay window.
const replayWindowBits = 1024
const replayWindowBytes = replayWindowBits / 8

// replayWindow rejects a transport-phase nonce that has already been
// accepted, or that falls further back than the window width. bit i of the
// bitmap represents the nonce (highestSeen - i); bit 0 is always the
// highest nonce seen so far.
type replayWindow struct {
	haveSeen    bool
	highestSeen uint32
	bitmap      [replayWindowBytes]byte
}

func (w *replayWindow) bit(i uint32) bool {
	return w.bitmap[i/8]&(1<<(i%8)) != 0
}

func (w *replayWindow) setBit(i uint32) {
	w.bitmap[i/8] |= 1 << (i % 8)
}

// shiftRight moves every set bit i to position i+delta, discarding bits
// that fall off the end of the window. Implemented bit-by-bit for clarity;
// the window is only 1024 bits so this is cheap relative to the AEAD
// operation it guards.
func (w *replayWindow) shiftRight(delta uint32) {
	if delta >= replayWindowBits {
		w.bitmap = [replayWindowBytes]byte{}
		return
	}
	var next [replayWindowBytes]byte
	for i := uint32(0); i < replayWindowBits; i++ {
		dst := i + delta
		if dst >= replayWindowBits {
			continue
		}
		if w.bitmap[i/8]&(1<<(i%8)) != 0 {
			next[dst/8] |= 1 << (dst % 8)
		}
	}
	w.bitmap = next
}

// peek reports whether nonce would be accepted, without mutating the
// window. Called before spending AEAD work on a ciphertext so an
// already-seen or out-of-window nonce is rejected cheaply.
func (w *replayWindow) peek(nonce uint32) error {
	if !w.haveSeen || nonce > w.highestSeen {
		return nil
	}
	k := w.highestSeen - nonce
	if k >= replayWindowBits {
		return ErrReplay
	}
	if w.bit(k) {
		return ErrReplay
	}
	return nil
}

// commit records nonce as accepted. Must only be called after the
// corresponding ciphertext has authenticated successfully.
func (w *replayWindow) commit(nonce uint32) {
	if !w.haveSeen {
		w.haveSeen = true
		w.highestSeen = nonce
		w.setBit(0)
		return
	}

	if nonce > w.highestSeen {
		w.shiftRight(nonce - w.highestSeen)
		w.highestSeen = nonce
		w.setBit(0)
		return
	}

	w.setBit(w.highestSeen - nonce)
}

// CipherState is one direction of a post-handshake transport session: a
// 32-byte AEAD key, a 32-bit big-endian send counter, and (for the receive
// direction) a 1024-bit sliding replay window.
type CipherState struct {
	mu      sync.Mutex
	key     []byte
	counter uint64 // kept as 64 bits internally to detect the 2^32 boundary cleanly
	replay  replayWindow
}

func newCipherState(key []byte) *CipherState {
	return &CipherState{key: append([]byte(nil), key...)}
}

// Encrypt seals plaintext under the current send counter and additional
// data, then increments the counter. Returns ErrNonceExhausted once every
// value in the 32-bit nonce space has been used; the session layer's rekey
// threshold (10^6 messages) is expected to retire a CipherState long
// before this is reached.
func (c *CipherState) Encrypt(plaintext, additionalData []byte) (ciphertext []byte, nonce uint32, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.counter > math.MaxUint32 {
		return nil, 0, ErrNonceExhausted
	}
	nonce = uint32(c.counter)

	ciphertext, err = crypto.ChaCha20Poly1305Seal(c.key, encodeNonce(nonce), plaintext, additionalData)
	if err != nil {
		return nil, 0, err
	}
	c.counter++
	return ciphertext, nonce, nil
}

// Decrypt opens ciphertext sent under nonce and additionalData, rejecting
// it if nonce has already been accepted or falls outside the replay
// window. On any rejection the replay window is left unchanged.
func (c *CipherState) Decrypt(nonce uint32, ciphertext, additionalData []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.replay.peek(nonce); err != nil {
		return nil, err
	}
	plaintext, err := crypto.ChaCha20Poly1305Open(c.key, encodeNonce(nonce), ciphertext, additionalData)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	c.replay.commit(nonce)
	return plaintext, nil
}

// Counter reports the next send nonce that will be used.
func (c *CipherState) Counter() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter
}

// Zeroize clears the AEAD key from memory. The CipherState must not be
// used afterward.
func (c *CipherState) Zeroize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	securemem.New(c.key).Wipe()
}

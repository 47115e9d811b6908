// Package noise implements the Noise_XX_25519_ChaChaPoly_SHA256 handshake
// pattern and the transport-phase CipherState that follows it: a 32-bit
// sequence nonce and a 1024-bit sliding replay window.
package noise

import (
	"sync"

	"github.com/fluxon-mesh/fluxon/internal/securemem"
	"github.com/fluxon-mesh/fluxon/pkg/crypto"
)

// protocolName is the Noise protocol name mixed into the initial hash and
// chaining key. It is exactly 32 bytes (the SHA-256 output length) so no
// padding step is needed.
var protocolName = []byte("Noise_XX_25519_ChaChaPoly_SHA256")

// Role identifies which side of the handshake a HandshakeState plays.
type Role int

const (
	RoleInitiator Role = iota
	RoleResponder
)

// Step tracks where a HandshakeState is in the three-message XX exchange.
type Step int

const (
	StepInit Step = iota
	StepWaitMessage2
	StepWaitMessage3
	StepComplete
	StepFailed
)

// symmetricState is Noise's SymmetricState: a running transcript hash, a
// chaining key, and an optional cipher key used to (de)crypt payloads and
// the "s" token as soon as a DH result has been mixed in.
type symmetricState struct {
	ck     []byte // chaining key, 32 bytes
	h      []byte // transcript hash, 32 bytes
	hasKey bool
	key    []byte // 32 bytes once hasKey
	nonce  uint32
}

func newSymmetricState() *symmetricState {
	h := crypto.SHA256(protocolName)
	return &symmetricState{
		ck: append([]byte(nil), h[:]...),
		h:  append([]byte(nil), h[:]...),
	}
}

func (s *symmetricState) mixHash(data []byte) {
	buf := make([]byte, 0, len(s.h)+len(data))
	buf = append(buf, s.h...)
	buf = append(buf, data...)
	sum := crypto.SHA256(buf)
	s.h = append(s.h[:0], sum[:]...)
}

func (s *symmetricState) mixKey(ikm []byte) error {
	prk := crypto.HKDFExtractSHA256(ikm, s.ck)
	out, err := crypto.HKDFExpandSHA256(prk, nil, 64)
	if err != nil {
		return err
	}
	s.ck = out[:32]
	s.key = out[32:64]
	s.hasKey = true
	s.nonce = 0
	return nil
}

func (s *symmetricState) encryptAndHash(plaintext []byte) ([]byte, error) {
	if !s.hasKey {
		out := append([]byte(nil), plaintext...)
		s.mixHash(out)
		return out, nil
	}
	ciphertext, err := crypto.ChaCha20Poly1305Seal(s.key, encodeNonce(s.nonce), plaintext, s.h)
	if err != nil {
		return nil, err
	}
	s.nonce++
	s.mixHash(ciphertext)
	return ciphertext, nil
}

func (s *symmetricState) decryptAndHash(ciphertext []byte) ([]byte, error) {
	if !s.hasKey {
		out := append([]byte(nil), ciphertext...)
		s.mixHash(out)
		return out, nil
	}
	plaintext, err := crypto.ChaCha20Poly1305Open(s.key, encodeNonce(s.nonce), ciphertext, s.h)
	if err != nil {
		return nil, err
	}
	s.nonce++
	s.mixHash(ciphertext)
	return plaintext, nil
}

// split derives the pair of transport keys from the final chaining key.
func (s *symmetricState) split() (k1, k2 []byte, err error) {
	prk := crypto.HKDFExtractSHA256(nil, s.ck)
	out, err := crypto.HKDFExpandSHA256(prk, nil, 64)
	if err != nil {
		return nil, nil, err
	}
	return out[:32], out[32:64], nil
}

func (s *symmetricState) zeroize() {
	securemem.New(s.ck).Wipe()
	securemem.New(s.h).Wipe()
	securemem.New(s.key).Wipe()
}

// HandshakeState runs one execution of Noise_XX_25519_ChaChaPoly_SHA256.
// Not safe for concurrent use without external locking; pkg/peer serializes
// all operations on a given peer slot, including its in-flight handshake.
type HandshakeState struct {
	mu sync.Mutex

	role Role
	step Step

	localStatic  *crypto.X25519KeyPair
	localSigning *crypto.Ed25519KeyPair
	localEph     *crypto.X25519KeyPair

	remoteStaticPub  []byte
	remoteEphPub     []byte
	remoteSigningPub []byte

	ss *symmetricState
}

// NewInitiatorHandshake begins a handshake as the party that sends message 1.
func NewInitiatorHandshake(localStatic *crypto.X25519KeyPair, localSigning *crypto.Ed25519KeyPair) *HandshakeState {
	return &HandshakeState{
		role:         RoleInitiator,
		step:         StepInit,
		localStatic:  localStatic,
		localSigning: localSigning,
		ss:           newSymmetricState(),
	}
}

// NewResponderHandshake begins a handshake as the party that waits for
// message 1.
func NewResponderHandshake(localStatic *crypto.X25519KeyPair, localSigning *crypto.Ed25519KeyPair) *HandshakeState {
	return &HandshakeState{
		role:         RoleResponder,
		step:         StepInit,
		localStatic:  localStatic,
		localSigning: localSigning,
		ss:           newSymmetricState(),
	}
}

// Role reports whether this handshake is playing the initiator or responder.
func (hs *HandshakeState) Role() Role {
	return hs.role
}

// IsComplete reports whether both sides have finished the three-message
// exchange and Split is ready to be called.
func (hs *HandshakeState) IsComplete() bool {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.step == StepComplete
}

// RemoteStaticPublicKey returns the peer's X25519 static public key. Valid
// only once IsComplete reports true.
func (hs *HandshakeState) RemoteStaticPublicKey() []byte {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.remoteStaticPub
}

// RemoteSigningPublicKey returns the peer's Ed25519 signing public key,
// extracted from the handshake payload. Valid only once IsComplete reports
// true.
func (hs *HandshakeState) RemoteSigningPublicKey() []byte {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.remoteSigningPub
}

// Start produces Noise message 1. Only valid for the initiator at StepInit.
func (hs *HandshakeState) Start() ([]byte, error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.role != RoleInitiator || hs.step != StepInit {
		return nil, ErrUnexpectedMessage
	}

	eph, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		hs.fail()
		return nil, ErrHandshakeFailed
	}
	hs.localEph = eph
	hs.ss.mixHash(eph.PublicKey())

	payload, err := hs.ss.encryptAndHash(nil)
	if err != nil {
		hs.fail()
		return nil, ErrHandshakeFailed
	}

	msg := make([]byte, 0, crypto.X25519KeyLen+len(payload))
	msg = append(msg, eph.PublicKey()...)
	msg = append(msg, payload...)

	hs.step = StepWaitMessage2
	return msg, nil
}

// ProcessMessage advances the handshake with an incoming message.
//
//   - Responder, message 1  -> returns message 2, not yet complete.
//   - Initiator, message 2  -> returns message 3, complete=true.
//   - Responder, message 3  -> returns nil, complete=true.
func (hs *HandshakeState) ProcessMessage(msg []byte) (next []byte, complete bool, err error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	switch {
	case hs.role == RoleResponder && hs.step == StepInit:
		if err := hs.readMessage1(msg); err != nil {
			hs.fail()
			return nil, false, err
		}
		next, err := hs.writeMessage2()
		if err != nil {
			hs.fail()
			return nil, false, err
		}
		hs.step = StepWaitMessage3
		return next, false, nil

	case hs.role == RoleInitiator && hs.step == StepWaitMessage2:
		if err := hs.readMessage2(msg); err != nil {
			hs.fail()
			return nil, false, err
		}
		next, err := hs.writeMessage3()
		if err != nil {
			hs.fail()
			return nil, false, err
		}
		hs.step = StepComplete
		return next, true, nil

	case hs.role == RoleResponder && hs.step == StepWaitMessage3:
		if err := hs.readMessage3(msg); err != nil {
			hs.fail()
			return nil, false, err
		}
		hs.step = StepComplete
		return nil, true, nil

	case hs.step == StepComplete:
		return nil, false, ErrHandshakeComplete

	default:
		return nil, false, ErrUnexpectedMessage
	}
}

// readMessage1: tokens [e]. Responder side.
func (hs *HandshakeState) readMessage1(msg []byte) error {
	if len(msg) < crypto.X25519KeyLen {
		return ErrShortMessage
	}
	remoteEph := msg[:crypto.X25519KeyLen]
	hs.remoteEphPub = append([]byte(nil), remoteEph...)
	hs.ss.mixHash(remoteEph)

	_, err := hs.ss.decryptAndHash(msg[crypto.X25519KeyLen:])
	return err
}

// writeMessage2: tokens [e, ee, s, es], payload carries local signing key.
// Responder side.
func (hs *HandshakeState) writeMessage2() ([]byte, error) {
	eph, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		return nil, ErrHandshakeFailed
	}
	hs.localEph = eph
	hs.ss.mixHash(eph.PublicKey())

	dhEE, err := crypto.X25519(eph, hs.remoteEphPub)
	if err != nil {
		return nil, ErrHandshakeFailed
	}
	if err := hs.ss.mixKey(dhEE); err != nil {
		return nil, ErrHandshakeFailed
	}

	encStatic, err := hs.ss.encryptAndHash(hs.localStatic.PublicKey())
	if err != nil {
		return nil, ErrHandshakeFailed
	}

	dhES, err := crypto.X25519(hs.localStatic, hs.remoteEphPub)
	if err != nil {
		return nil, ErrHandshakeFailed
	}
	if err := hs.ss.mixKey(dhES); err != nil {
		return nil, ErrHandshakeFailed
	}

	encPayload, err := hs.ss.encryptAndHash(hs.localSigning.Public)
	if err != nil {
		return nil, ErrHandshakeFailed
	}

	msg := make([]byte, 0, crypto.X25519KeyLen+len(encStatic)+len(encPayload))
	msg = append(msg, eph.PublicKey()...)
	msg = append(msg, encStatic...)
	msg = append(msg, encPayload...)
	return msg, nil
}

// readMessage2: tokens [e, ee, s, es], payload carries remote signing key.
// Initiator side.
func (hs *HandshakeState) readMessage2(msg []byte) error {
	if len(msg) < crypto.X25519KeyLen {
		return ErrShortMessage
	}
	remoteEph := msg[:crypto.X25519KeyLen]
	rest := msg[crypto.X25519KeyLen:]
	hs.remoteEphPub = append([]byte(nil), remoteEph...)
	hs.ss.mixHash(remoteEph)

	dhEE, err := crypto.X25519(hs.localEph, hs.remoteEphPub)
	if err != nil {
		return ErrHandshakeFailed
	}
	if err := hs.ss.mixKey(dhEE); err != nil {
		return ErrHandshakeFailed
	}

	encStaticLen := crypto.X25519KeyLen + crypto.AEADOverheadLen
	if len(rest) < encStaticLen {
		return ErrShortMessage
	}
	remoteStatic, err := hs.ss.decryptAndHash(rest[:encStaticLen])
	if err != nil {
		return ErrHandshakeFailed
	}
	hs.remoteStaticPub = remoteStatic
	rest = rest[encStaticLen:]

	dhES, err := crypto.X25519(hs.localEph, hs.remoteStaticPub)
	if err != nil {
		return ErrHandshakeFailed
	}
	if err := hs.ss.mixKey(dhES); err != nil {
		return ErrHandshakeFailed
	}

	payload, err := hs.ss.decryptAndHash(rest)
	if err != nil {
		return ErrHandshakeFailed
	}
	return hs.acceptRemoteSigningKey(payload)
}

// writeMessage3: tokens [s, se], payload carries local signing key.
// Initiator side.
func (hs *HandshakeState) writeMessage3() ([]byte, error) {
	encStatic, err := hs.ss.encryptAndHash(hs.localStatic.PublicKey())
	if err != nil {
		return nil, ErrHandshakeFailed
	}

	dhSE, err := crypto.X25519(hs.localStatic, hs.remoteEphPub)
	if err != nil {
		return nil, ErrHandshakeFailed
	}
	if err := hs.ss.mixKey(dhSE); err != nil {
		return nil, ErrHandshakeFailed
	}

	encPayload, err := hs.ss.encryptAndHash(hs.localSigning.Public)
	if err != nil {
		return nil, ErrHandshakeFailed
	}

	msg := make([]byte, 0, len(encStatic)+len(encPayload))
	msg = append(msg, encStatic...)
	msg = append(msg, encPayload...)
	return msg, nil
}

// readMessage3: tokens [s, se], payload carries remote signing key.
// Responder side.
func (hs *HandshakeState) readMessage3(msg []byte) error {
	encStaticLen := crypto.X25519KeyLen + crypto.AEADOverheadLen
	if len(msg) < encStaticLen {
		return ErrShortMessage
	}
	remoteStatic, err := hs.ss.decryptAndHash(msg[:encStaticLen])
	if err != nil {
		return ErrHandshakeFailed
	}
	hs.remoteStaticPub = remoteStatic

	dhSE, err := crypto.X25519(hs.localEph, hs.remoteStaticPub)
	if err != nil {
		return ErrHandshakeFailed
	}
	if err := hs.ss.mixKey(dhSE); err != nil {
		return ErrHandshakeFailed
	}

	payload, err := hs.ss.decryptAndHash(msg[encStaticLen:])
	if err != nil {
		return ErrHandshakeFailed
	}
	return hs.acceptRemoteSigningKey(payload)
}

func (hs *HandshakeState) acceptRemoteSigningKey(payload []byte) error {
	if len(payload) != crypto.Ed25519PublicKeyLen {
		return ErrSigningKeyInvalid
	}
	allZero := true
	for _, b := range payload {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return ErrSigningKeyInvalid
	}
	hs.remoteSigningPub = payload
	return nil
}

// Split derives the pair of transport CipherStates. Only valid once
// IsComplete reports true. The caller's role determines which direction
// each CipherState serves: the initiator's send state is c1, the
// responder's send state is c1 swapped (responder send = initiator recv).
func (hs *HandshakeState) Split() (send, recv *CipherState, err error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.step != StepComplete {
		return nil, nil, ErrUnexpectedMessage
	}

	c1, c2, err := hs.ss.split()
	if err != nil {
		return nil, nil, err
	}
	if hs.role == RoleInitiator {
		return newCipherState(c1), newCipherState(c2), nil
	}
	return newCipherState(c2), newCipherState(c1), nil
}

// Zeroize clears chaining key, transcript hash, cipher key, and any held
// ephemeral/static key material, and marks the handshake failed so further
// use returns an error. Safe to call on any exit path, including success
// (the symmetric state is no longer needed once Split has been called).
func (hs *HandshakeState) Zeroize() {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.zeroizeLocked()
}

func (hs *HandshakeState) zeroizeLocked() {
	hs.ss.zeroize()
	if hs.localEph != nil {
		securemem.New(hs.localEph.PrivateKey()).Wipe()
	}
	hs.step = StepFailed
}

func (hs *HandshakeState) fail() {
	hs.zeroizeLocked()
}

package noise

import "errors"

var (
	// ErrHandshakeFailed wraps any failure of the handshake state machine:
	// malformed message, DH failure, or decrypt failure during a handshake
	// step. The caller must treat the handshake as dead and discard it.
	ErrHandshakeFailed = errors.New("noise: handshake failed")

	// ErrSigningKeyInvalid is returned when a handshake payload's embedded
	// Ed25519 signing public key is the wrong length or all-zero.
	ErrSigningKeyInvalid = errors.New("noise: signing key invalid")

	// ErrHandshakeComplete is returned when a caller drives a completed
	// handshake with another message.
	ErrHandshakeComplete = errors.New("noise: handshake already complete")

	// ErrUnexpectedMessage is returned when ProcessMessage or Start is
	// called out of sequence for the handshake's role/step.
	ErrUnexpectedMessage = errors.New("noise: unexpected handshake message for current step")

	// ErrReplay is returned by a CipherState's Decrypt when the received
	// nonce has already been accepted, or falls outside the replay window.
	ErrReplay = errors.New("noise: replayed or out-of-window nonce")

	// ErrNonceExhausted is returned when a CipherState's send counter has
	// used every value in the 32-bit nonce space. Session-layer rekey at
	// 10^6 messages is expected to preempt this by a wide margin.
	ErrNonceExhausted = errors.New("noise: nonce space exhausted")

	// ErrDecryptFailed is returned on AEAD authentication failure during
	// the transport phase.
	ErrDecryptFailed = errors.New("noise: decrypt failed")

	// ErrShortMessage is returned when a handshake message is too short to
	// contain its expected tokens.
	ErrShortMessage = errors.New("noise: handshake message too short")
)

package peer

import "errors"

var (
	// ErrRateLimited is returned when a handshake attempt exceeds the
	// per-peer or global handshake rate limit. The slot is not touched.
	ErrRateLimited = errors.New("peer: handshake rate limit exceeded")

	// ErrNoSession is returned when an operation requiring an established
	// session is attempted on a slot with none.
	ErrNoSession = errors.New("peer: no established session")

	// ErrHandshakeInFlight is returned when start_handshake is called on a
	// slot that already has a handshake in progress.
	ErrHandshakeInFlight = errors.New("peer: handshake already in flight")

	// ErrSigningKeyInvalid is returned when a remote signing key presented
	// during handshake is empty, the wrong length, or all-zero.
	ErrSigningKeyInvalid = errors.New("peer: remote signing key invalid")

	// ErrSigningKeyChanged is returned on a TOFU mismatch: the peer's
	// pinned signing key differs from the one just presented.
	ErrSigningKeyChanged = errors.New("peer: signing key changed since pinning")

	// ErrSessionExhausted is returned by Encrypt once the rekey threshold
	// is reached; the session is torn down and no ciphertext is produced.
	ErrSessionExhausted = errors.New("peer: session exhausted, rekey required")

	// ErrDecryptFailed is returned by Decrypt on AEAD authentication
	// failure; the session is removed as a side effect.
	ErrDecryptFailed = errors.New("peer: decrypt failed")

	// ErrHandshakeTimeout is returned when a handshake has been in flight
	// longer than the allowed wall-clock window.
	ErrHandshakeTimeout = errors.New("peer: handshake timed out")
)

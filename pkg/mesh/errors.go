package mesh

import "errors"

var (
	// ErrFrameTooLarge is returned for inbound frames over MaxFrameLen, or
	// empty frames.
	ErrFrameTooLarge = errors.New("mesh: frame exceeds maximum length")
	// ErrRateLimited is returned when a frame is dropped by the global,
	// per-handle, or per-peer inbound rate limit.
	ErrRateLimited = errors.New("mesh: rate limited")
	// ErrNoSession is returned by send when peerID has no authenticated
	// session.
	ErrNoSession = errors.New("mesh: no authenticated session for peer")
	// ErrRekeyPending is returned by send when the session exists but has
	// crossed its rekey threshold and cannot encrypt further messages.
	ErrRekeyPending = errors.New("mesh: session needs rekey")
	// ErrStopped is returned by outbound operations once the service has
	// been stopped.
	ErrStopped = errors.New("mesh: service is stopped")
	// ErrSourceMismatch is returned internally when an authenticated
	// peer's packet carries a source_id other than its own pinned PeerId.
	ErrSourceMismatch = errors.New("mesh: source_id does not match authenticated peer")
)

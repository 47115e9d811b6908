package transport

import "context"

// Frame is one inbound byte buffer from a transport handle. Bytes are a
// fresh, owned buffer: the adapter must not reuse or mutate it after
// sending.
type Frame struct {
	PeerHandle string
	Bytes      []byte
}

// EventKind distinguishes the two peer lifecycle events an Adapter emits.
type EventKind int

const (
	PeerConnected EventKind = iota
	PeerDisconnected
)

// PeerEvent reports a transport-level connect/disconnect for a peer
// handle. It carries no identity information: PeerId binding only exists
// once a session is authenticated, which is the Mesh Service's job, not
// the transport's.
type PeerEvent struct {
	Kind       EventKind
	PeerHandle string
}

// Adapter is the narrow interface the Mesh Service drives. An adapter is
// responsible for framing, connection management, and MTU; it performs no
// authentication and no encryption of its own — the transport is entirely
// untrusted, and every security property is enforced by the core above it.
//
// This is channel-based rather than callback-based by design: a
// callback-driven adapter captures a backreference into the Mesh Service
// (adapter -> handler -> mesh -> adapter), which is exactly the
// shared-owned-mutable-state-with-cyclic-references shape this component
// is meant to avoid. A channel lets the Mesh Service's own read loop own
// all of its mutable state and pull frames and events on its own
// schedule, with the adapter as a pure producer.
type Adapter interface {
	// Start begins accepting connections and reading frames. It must not
	// block past initial setup; ongoing work happens on goroutines owned
	// by the adapter and is torn down by Stop or ctx cancellation.
	Start(ctx context.Context) error
	// Stop tears down all adapter goroutines and closes the channels
	// returned by IncomingFrames and PeerEvents.
	Stop() error

	// SendTo best-effort unicasts data to peerHandle.
	SendTo(peerHandle string, data []byte) error
	// Broadcast best-effort multicasts data to every connected peer.
	Broadcast(data []byte) error

	// IncomingFrames returns the channel of inbound frames. Closed when
	// the adapter stops.
	IncomingFrames() <-chan Frame
	// PeerEvents returns the channel of connect/disconnect events. Closed
	// when the adapter stops.
	PeerEvents() <-chan PeerEvent
}

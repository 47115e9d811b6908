package mesh

import "sync/atomic"

// Stats is a snapshot of the Mesh Service's running counters. All fields
// are plain values; Service keeps the live counters as atomics and copies
// them out on Stats().
type Stats struct {
	FramesReceived    uint64
	FramesDropped     uint64
	PacketsDelivered  uint64
	PacketsRelayed    uint64
	HandshakesStarted uint64
	SessionsActive    uint64
}

type liveStats struct {
	framesReceived    atomic.Uint64
	framesDropped     atomic.Uint64
	packetsDelivered  atomic.Uint64
	packetsRelayed    atomic.Uint64
	handshakesStarted atomic.Uint64
}

func (s *liveStats) snapshot(sessionsActive int) Stats {
	return Stats{
		FramesReceived:    s.framesReceived.Load(),
		FramesDropped:     s.framesDropped.Load(),
		PacketsDelivered:  s.packetsDelivered.Load(),
		PacketsRelayed:    s.packetsRelayed.Load(),
		HandshakesStarted: s.handshakesStarted.Load(),
		SessionsActive:    uint64(sessionsActive),
	}
}

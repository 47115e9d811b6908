package peer

import (
	"time"

	"github.com/fluxon-mesh/fluxon/pkg/noise"
)

// RekeyThreshold is the message-count ceiling on a session's send or
// receive counter. A session is never allowed to reach this many
// successful encrypts or decrypts; the attempt that would push the
// counter to the threshold instead tears the session down.
const RekeyThreshold = 1_000_000

// Session holds the live cryptographic state for one authenticated peer:
// the two directional CipherStates produced by the handshake's Split, the
// pinned remote signing key, and message counters used for rekey
// discipline.
type Session struct {
	send *noise.CipherState
	recv *noise.CipherState

	remoteSigningKey []byte
	remoteStaticKey  []byte

	sentCount uint64
	recvCount uint64

	createdAt time.Time
}

func newSession(send, recv *noise.CipherState, remoteSigningKey, remoteStaticKey []byte) *Session {
	return &Session{
		send:             send,
		recv:             recv,
		remoteSigningKey: append([]byte(nil), remoteSigningKey...),
		remoteStaticKey:  append([]byte(nil), remoteStaticKey...),
		createdAt:        time.Now(),
	}
}

// exhausted reports whether the next encrypt or decrypt would push either
// counter to RekeyThreshold.
func (s *Session) exhausted() bool {
	return s.sentCount >= RekeyThreshold-1 || s.recvCount >= RekeyThreshold-1
}

func (s *Session) zeroize() {
	if s.send != nil {
		s.send.Zeroize()
	}
	if s.recv != nil {
		s.recv.Zeroize()
	}
	for i := range s.remoteSigningKey {
		s.remoteSigningKey[i] = 0
	}
	for i := range s.remoteStaticKey {
		s.remoteStaticKey[i] = 0
	}
}

// Package securemem provides small wrappers around key material that zero
// the underlying bytes on every exit path, following the zeroize-on-close
// convention the session layer uses for its transport keys.
package securemem

// Bytes holds a byte slice that must be wiped once no longer needed. It is
// not safe for concurrent use; callers holding it across goroutines must
// provide their own synchronization (as pkg/noise and pkg/peer do for the
// session state that embeds it).
type Bytes struct {
	b []byte
}

// New takes ownership of b and returns a wrapper around it. The caller must
// not retain or mutate b after this call.
func New(b []byte) *Bytes {
	return &Bytes{b: b}
}

// Zero returns a wrapper holding n zeroed bytes.
func Zero(n int) *Bytes {
	return &Bytes{b: make([]byte, n)}
}

// Bytes returns the underlying slice. The returned slice aliases internal
// storage; callers must not retain it past the wrapper's lifetime.
func (k *Bytes) Bytes() []byte {
	if k == nil {
		return nil
	}
	return k.b
}

// Len reports the length of the underlying slice.
func (k *Bytes) Len() int {
	if k == nil {
		return 0
	}
	return len(k.b)
}

// Wipe overwrites the underlying bytes with zeros in place. Safe to call
// multiple times and on a nil receiver.
func (k *Bytes) Wipe() {
	if k == nil {
		return
	}
	for i := range k.b {
		k.b[i] = 0
	}
}

// WipeAll zeroes every non-nil wrapper passed in, in order. Convenience for
// the common case of clearing a handful of related keys on teardown.
func WipeAll(keys ...*Bytes) {
	for _, k := range keys {
		k.Wipe()
	}
}

package crypto

import "crypto/subtle"

// ConstantTimeEqual reports whether a and b hold the same bytes, comparing
// in time independent of where they first differ. Used to compare pinned
// signing keys and MAC/signature material, never with plain ==.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

package crypto

import "crypto/rand"

// RandomBytes returns n cryptographically random bytes read from the
// system CSPRNG. Used for ephemeral Noise keys, group salts, and relay
// jitter scheduling.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

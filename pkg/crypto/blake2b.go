package crypto

import (
	"golang.org/x/crypto/blake2b"
)

// BLAKE2b256Len is the digest size used for peer identifiers, packet
// fingerprints, and group identifiers.
const BLAKE2b256Len = 32

// BLAKE2b256 computes an unkeyed 32-byte BLAKE2b digest. Used to derive a
// peer's public identifier from its Noise static public key and to derive a
// packet's dedup fingerprint from its canonical encoding.
func BLAKE2b256(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

// BLAKE2b256Keyed computes a keyed 32-byte BLAKE2b digest. Used to derive a
// group's identifier from its group key so two members who derived the same
// key from a shared passphrase agree on an id without exchanging one.
func BLAKE2b256Keyed(key, data []byte) ([]byte, error) {
	h, err := blake2b.New256(key)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// BLAKE2bSum computes an unkeyed BLAKE2b digest of the requested size
// (1-64 bytes). Used where a digest shorter than 32 bytes is wanted, such
// as a 16-byte group identifier.
func BLAKE2bSum(outLen int, data []byte) ([]byte, error) {
	h, err := blake2b.New(outLen, nil)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

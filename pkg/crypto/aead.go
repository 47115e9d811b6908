package crypto

import (
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// AEAD key and nonce sizes.
const (
	AEADKeyLen        = chacha20poly1305.KeySize   // 32
	ChaCha20NonceLen  = chacha20poly1305.NonceSize  // 12, IETF 96-bit nonce
	XChaCha20NonceLen = chacha20poly1305.NonceSizeX // 24, XChaCha 192-bit nonce
	AEADOverheadLen   = chacha20poly1305.Overhead   // 16-byte Poly1305 tag
)

// ErrAEADSealFailed and ErrAEADOpenFailed wrap the underlying cipher errors
// without leaking details that could help an attacker distinguish failure
// causes (wrong key vs. corrupted ciphertext vs. bad AD).
var (
	ErrAEADSealFailed = errors.New("crypto: aead seal failed")
	ErrAEADOpenFailed = errors.New("crypto: aead authentication failed")
)

// ChaCha20Poly1305Seal encrypts and authenticates plaintext under key and a
// 12-byte IETF nonce, binding additionalData into the authentication tag.
// This is the transport AEAD used by the Noise CipherState once the
// handshake completes.
func ChaCha20Poly1305Seal(key, nonce, plaintext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, ErrAEADSealFailed
	}
	if len(nonce) != ChaCha20NonceLen {
		return nil, ErrAEADSealFailed
	}
	return aead.Seal(nil, nonce, plaintext, additionalData), nil
}

// ChaCha20Poly1305Open authenticates and decrypts ciphertext. Returns
// ErrAEADOpenFailed on any authentication failure, without distinguishing
// the cause.
func ChaCha20Poly1305Open(key, nonce, ciphertext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, ErrAEADOpenFailed
	}
	if len(nonce) != ChaCha20NonceLen {
		return nil, ErrAEADOpenFailed
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, ErrAEADOpenFailed
	}
	return plaintext, nil
}

// XChaCha20Poly1305Seal encrypts and authenticates plaintext under key and a
// 24-byte extended nonce. The group cipher uses XChaCha20-Poly1305 rather
// than the IETF variant because group message nonces are derived from a
// random per-message value rather than a coordinated per-peer counter, and
// the larger nonce space makes random-nonce collisions negligible.
func XChaCha20Poly1305Seal(key, nonce, plaintext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrAEADSealFailed
	}
	if len(nonce) != XChaCha20NonceLen {
		return nil, ErrAEADSealFailed
	}
	return aead.Seal(nil, nonce, plaintext, additionalData), nil
}

// XChaCha20Poly1305Open authenticates and decrypts ciphertext sealed with
// XChaCha20Poly1305Seal.
func XChaCha20Poly1305Open(key, nonce, ciphertext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrAEADOpenFailed
	}
	if len(nonce) != XChaCha20NonceLen {
		return nil, ErrAEADOpenFailed
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, ErrAEADOpenFailed
	}
	return plaintext, nil
}

package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
)

// Ed25519 signature and key sizes.
const (
	Ed25519PublicKeyLen  = ed25519.PublicKeySize
	Ed25519PrivateKeyLen = ed25519.PrivateKeySize
	Ed25519SignatureLen  = ed25519.SignatureSize
)

// ErrInvalidSignature is returned by Ed25519Verify when the signature does
// not validate against the given public key and message.
var ErrInvalidSignature = errors.New("crypto: invalid ed25519 signature")

// ErrInvalidKeyLength is returned when a supplied key buffer has the wrong
// size for the operation requested.
var ErrInvalidKeyLength = errors.New("crypto: invalid key length")

// Ed25519KeyPair holds a device's long-term signing identity, used both to
// authenticate the Noise static key during the handshake's payload exchange
// and to sign outgoing wire packets.
type Ed25519KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateEd25519KeyPair generates a fresh Ed25519 signing key pair.
func GenerateEd25519KeyPair() (*Ed25519KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Ed25519KeyPair{Public: pub, Private: priv}, nil
}

// Ed25519KeyPairFromSeed deterministically reconstructs a key pair from a
// 32-byte seed, e.g. one unsealed from at-rest storage.
func Ed25519KeyPairFromSeed(seed []byte) (*Ed25519KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidKeyLength
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Ed25519KeyPair{Public: priv.Public().(ed25519.PublicKey), Private: priv}, nil
}

// Sign produces a detached Ed25519 signature over message.
func (kp *Ed25519KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(kp.Private, message)
}

// Ed25519Verify checks a detached signature against a public key and
// message. publicKey must be exactly Ed25519PublicKeyLen bytes.
func Ed25519Verify(publicKey, message, signature []byte) error {
	if len(publicKey) != Ed25519PublicKeyLen {
		return ErrInvalidKeyLength
	}
	if len(signature) != Ed25519SignatureLen {
		return ErrInvalidSignature
	}
	if !ed25519.Verify(publicKey, message, signature) {
		return ErrInvalidSignature
	}
	return nil
}

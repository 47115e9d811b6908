package crypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"errors"
)

// X25519KeyLen is the length in bytes of an X25519 public or private key.
const X25519KeyLen = 32

// ErrInvalidX25519Key is returned when a public key is not a valid point on
// the curve used by crypto/ecdh (e.g. wrong length, all-zero output point).
var ErrInvalidX25519Key = errors.New("crypto: invalid x25519 key")

// X25519KeyPair holds an X25519 static or ephemeral key pair, used for both
// the Noise handshake DH steps and long-term peer identity agreement.
type X25519KeyPair struct {
	priv *ecdh.PrivateKey
}

// GenerateX25519KeyPair generates a fresh X25519 key pair using the system
// CSPRNG.
func GenerateX25519KeyPair() (*X25519KeyPair, error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &X25519KeyPair{priv: priv}, nil
}

// X25519KeyPairFromPrivate reconstructs a key pair from a 32-byte private
// scalar, e.g. one unsealed from at-rest storage.
func X25519KeyPairFromPrivate(privateKey []byte) (*X25519KeyPair, error) {
	priv, err := ecdh.X25519().NewPrivateKey(privateKey)
	if err != nil {
		return nil, ErrInvalidX25519Key
	}
	return &X25519KeyPair{priv: priv}, nil
}

// PublicKey returns the 32-byte public key.
func (kp *X25519KeyPair) PublicKey() []byte {
	return kp.priv.PublicKey().Bytes()
}

// PrivateKey returns the 32-byte private scalar. Callers holding this value
// long-term should wrap it in internal/securemem rather than keeping a bare
// slice around.
func (kp *X25519KeyPair) PrivateKey() []byte {
	return kp.priv.Bytes()
}

// X25519 performs the Diffie-Hellman operation between a local private key
// and a remote 32-byte public key, returning the 32-byte shared secret.
//
// This is the DH() function used by the Noise handshake state machine for
// its ee, es, se, and ss mixes.
func X25519(kp *X25519KeyPair, remotePublicKey []byte) ([]byte, error) {
	pub, err := ecdh.X25519().NewPublicKey(remotePublicKey)
	if err != nil {
		return nil, ErrInvalidX25519Key
	}
	secret, err := kp.priv.ECDH(pub)
	if err != nil {
		return nil, ErrInvalidX25519Key
	}
	return secret, nil
}

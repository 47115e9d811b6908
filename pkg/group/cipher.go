package group

import (
	"github.com/fluxon-mesh/fluxon/pkg/crypto"
)

// BuildAD assembles the associated data a group ciphertext is bound to:
// at minimum the packet type byte and the sender's source id, so a
// ciphertext from one packet type or sender cannot be replayed as another
// within the same group.
func BuildAD(packetType byte, sourceID []byte) []byte {
	ad := make([]byte, 0, 1+len(sourceID))
	ad = append(ad, packetType)
	ad = append(ad, sourceID...)
	return ad
}

// Seal encrypts plaintext under g's key with a fresh random 24-byte
// XChaCha20-Poly1305 nonce, prepending the nonce to the returned
// ciphertext so Open can recover it without an out-of-band channel.
func Seal(g *Group, ad, plaintext []byte) ([]byte, error) {
	nonce, err := crypto.RandomBytes(crypto.XChaCha20NonceLen)
	if err != nil {
		return nil, ErrEncryptFailed
	}
	ciphertext, err := crypto.XChaCha20Poly1305Seal(g.Key.Bytes(), nonce, plaintext, ad)
	if err != nil {
		return nil, ErrEncryptFailed
	}
	return append(nonce, ciphertext...), nil
}

// Open splits framed's leading 24-byte nonce from its ciphertext and
// decrypts under g's key, requiring the same ad the sender supplied to
// Seal.
func Open(g *Group, ad, framed []byte) ([]byte, error) {
	if len(framed) < crypto.XChaCha20NonceLen {
		return nil, ErrDecryptFailed
	}
	nonce := framed[:crypto.XChaCha20NonceLen]
	ciphertext := framed[crypto.XChaCha20NonceLen:]

	plaintext, err := crypto.XChaCha20Poly1305Open(g.Key.Bytes(), nonce, ciphertext, ad)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}

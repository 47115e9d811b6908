package wire

import "github.com/fluxon-mesh/fluxon/pkg/crypto"

// Sign produces a 64-byte detached Ed25519 signature over p's canonical
// unsigned encoding and attaches it to p.Signature.
func Sign(p *Packet, signing *crypto.Ed25519KeyPair) error {
	unsigned, err := EncodeUnsigned(p)
	if err != nil {
		return err
	}
	p.Signature = signing.Sign(unsigned)
	return nil
}

// Verify checks p's attached signature against publicKey. Returns
// ErrInvalidSignatureLength if no signature is attached.
func Verify(p *Packet, publicKey []byte) error {
	if !p.Signed() {
		return ErrInvalidSignatureLength
	}
	unsigned, err := EncodeUnsigned(&Packet{
		Version:     p.Version,
		Type:        p.Type,
		TTL:         p.TTL,
		Flags:       p.Flags,
		TimestampMs: p.TimestampMs,
		SourceID:    p.SourceID,
		DestID:      p.DestID,
		Payload:     p.Payload,
	})
	if err != nil {
		return err
	}
	return crypto.Ed25519Verify(publicKey, unsigned, p.Signature)
}

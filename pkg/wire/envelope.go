package wire

import "encoding/binary"

// EncodeNoiseEnvelope packs a Noise transport nonce and ciphertext into the
// payload of a noise_encrypted wrapper packet: nonce(4, big-endian) |
// ciphertext. The ciphertext is the AEAD sealing of a fully encoded inner
// packet (header, typed payload, and its own signature trailer), so a
// single decrypt recovers a complete, independently verifiable packet.
func EncodeNoiseEnvelope(nonce uint32, ciphertext []byte) []byte {
	buf := make([]byte, 4+len(ciphertext))
	binary.BigEndian.PutUint32(buf[:4], nonce)
	copy(buf[4:], ciphertext)
	return buf
}

// DecodeNoiseEnvelope unpacks a noise_encrypted wrapper packet's payload.
func DecodeNoiseEnvelope(payload []byte) (nonce uint32, ciphertext []byte, err error) {
	if len(payload) < 4 {
		return 0, nil, ErrPayloadTruncated
	}
	nonce = binary.BigEndian.Uint32(payload[:4])
	ciphertext = payload[4:]
	return nonce, ciphertext, nil
}

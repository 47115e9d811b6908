package wire

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
)

// MaxClockSkew bounds how far a packet's timestamp_ms may drift from the
// local clock, in either direction, before it is rejected.
const MaxClockSkew = 5 * time.Minute

// EncodeUnsigned serializes p's header and payload in canonical form,
// without any signature trailer. This is also the exact byte sequence
// that gets signed: signatures cover bytes [0, 78+N).
func EncodeUnsigned(p *Packet) ([]byte, error) {
	if len(p.Payload) > MaxPayloadLen {
		return nil, ErrPayloadTooLong
	}

	buf := make([]byte, HeaderLen+len(p.Payload))
	buf[0] = ProtocolVersion
	buf[1] = byte(p.Type)
	buf[2] = p.TTL
	buf[3] = p.Flags
	binary.BigEndian.PutUint64(buf[4:12], p.TimestampMs)
	copy(buf[sourceIDOffset:sourceIDOffset+PeerIDLen], p.SourceID[:])
	copy(buf[destIDOffset:destIDOffset+PeerIDLen], p.DestID[:])
	binary.BigEndian.PutUint16(buf[payloadLenOff:payloadLenOff+2], uint16(len(p.Payload)))
	copy(buf[HeaderLen:], p.Payload)
	return buf, nil
}

// Encode serializes p, appending its Signature trailer if present.
func Encode(p *Packet) ([]byte, error) {
	unsigned, err := EncodeUnsigned(p)
	if err != nil {
		return nil, err
	}
	if p.Signature == nil {
		return unsigned, nil
	}
	if len(p.Signature) != SignatureLen {
		return nil, ErrInvalidSignatureLength
	}
	return append(unsigned, p.Signature...), nil
}

// Decode parses a wire frame, enforcing every bounds and sanity check from
// the codec's decoding contract. now is the local clock used for the
// timestamp skew check.
func Decode(buf []byte, now time.Time) (*Packet, error) {
	if len(buf) < HeaderLen {
		return nil, ErrShortFrame
	}

	typ := Type(buf[1])
	if !typ.IsValid() {
		return nil, ErrUnknownType
	}

	ttl := buf[2]
	if ttl == 0 || ttl > MaxTTL {
		return nil, ErrTTLOutOfRange
	}

	payloadLen := int(binary.BigEndian.Uint16(buf[payloadLenOff : payloadLenOff+2]))
	if payloadLen > MaxPayloadLen {
		return nil, ErrPayloadTooLong
	}
	if len(buf) < HeaderLen+payloadLen {
		return nil, ErrTruncatedPayload
	}

	timestampMs := binary.BigEndian.Uint64(buf[4:12])
	if skewed(timestampMs, now) {
		return nil, ErrTimestampSkew
	}

	trailer := buf[HeaderLen+payloadLen:]
	var signature []byte
	switch len(trailer) {
	case 0:
		signature = nil
	case SignatureLen:
		signature = append([]byte(nil), trailer...)
	default:
		return nil, ErrInvalidSignatureLength
	}

	p := &Packet{
		Version:     buf[0],
		Type:        typ,
		TTL:         ttl,
		Flags:       buf[3],
		TimestampMs: timestampMs,
		Payload:     append([]byte(nil), buf[HeaderLen:HeaderLen+payloadLen]...),
		Signature:   signature,
	}
	copy(p.SourceID[:], buf[sourceIDOffset:sourceIDOffset+PeerIDLen])
	copy(p.DestID[:], buf[destIDOffset:destIDOffset+PeerIDLen])
	return p, nil
}

func skewed(timestampMs uint64, now time.Time) bool {
	t := time.UnixMilli(int64(timestampMs))
	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}
	return diff > MaxClockSkew
}

// ID computes the packet's dedup/gossip fingerprint:
// hex(source_id):timestamp_ms:type:flags:(sig_prefix|"nosig"). Signature
// presence is part of the fingerprint so a signed packet and a
// signature-stripped replay of the same content are distinct entries.
func (p *Packet) ID() string {
	sigPart := "nosig"
	if p.Signed() {
		n := 8
		if len(p.Signature) < n {
			n = len(p.Signature)
		}
		sigPart = hex.EncodeToString(p.Signature[:n])
	}
	return fmt.Sprintf("%s:%d:%d:%d:%s", hex.EncodeToString(p.SourceID[:]), p.TimestampMs, uint8(p.Type), p.Flags, sigPart)
}

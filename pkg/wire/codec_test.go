package wire

import (
	"bytes"
	"testing"
	"time"
)

func samplePacket() *Packet {
	p := &Packet{
		Version:     ProtocolVersion,
		Type:        TypeChat,
		TTL:         7,
		Flags:       0,
		TimestampMs: uint64(time.Now().UnixMilli()),
		Payload:     []byte("hello"),
	}
	p.SourceID[0] = 0xAA
	p.DestID[0] = 0xBB
	return p
}

func TestCodec_EncodeDecodeUnsignedRoundTrip(t *testing.T) {
	p := samplePacket()

	buf, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(buf) != HeaderLen+len(p.Payload) {
		t.Fatalf("encoded len = %d, want %d", len(buf), HeaderLen+len(p.Payload))
	}

	decoded, err := Decode(buf, time.Now())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Type != p.Type || decoded.TTL != p.TTL || decoded.TimestampMs != p.TimestampMs {
		t.Fatalf("header mismatch: got %+v", decoded)
	}
	if !bytes.Equal(decoded.Payload, p.Payload) {
		t.Fatalf("payload mismatch: got %q, want %q", decoded.Payload, p.Payload)
	}
	if decoded.Signed() {
		t.Fatal("unsigned packet decoded as signed")
	}
}

func TestCodec_OwnedCopiesNotAliased(t *testing.T) {
	p := samplePacket()
	buf, err := Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(buf, time.Now())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	buf[HeaderLen] = 'X'
	if decoded.Payload[0] == 'X' {
		t.Fatal("decoded payload aliases the input buffer")
	}
}

func TestCodec_RejectsShortFrame(t *testing.T) {
	if _, err := Decode(make([]byte, HeaderLen-1), time.Now()); err != ErrShortFrame {
		t.Fatalf("err = %v, want ErrShortFrame", err)
	}
}

func TestCodec_RejectsUnknownType(t *testing.T) {
	p := samplePacket()
	p.Type = Type(0xFF)
	buf, _ := EncodeUnsigned(p)
	buf[1] = 0xFF

	if _, err := Decode(buf, time.Now()); err != ErrUnknownType {
		t.Fatalf("err = %v, want ErrUnknownType", err)
	}
}

func TestCodec_RejectsTTLOutOfRange(t *testing.T) {
	p := samplePacket()
	p.TTL = 8
	buf, err := EncodeUnsigned(p)
	if err != nil {
		t.Fatalf("EncodeUnsigned: %v", err)
	}

	if _, err := Decode(buf, time.Now()); err != ErrTTLOutOfRange {
		t.Fatalf("err = %v, want ErrTTLOutOfRange", err)
	}
}

func TestCodec_RejectsPayloadTooLong(t *testing.T) {
	p := samplePacket()
	p.Payload = bytes.Repeat([]byte{0}, MaxPayloadLen+1)

	if _, err := EncodeUnsigned(p); err != ErrPayloadTooLong {
		t.Fatalf("EncodeUnsigned err = %v, want ErrPayloadTooLong", err)
	}
}

func TestCodec_RejectsPayloadLen513OnDecode(t *testing.T) {
	p := samplePacket()
	p.Payload = bytes.Repeat([]byte{0}, MaxPayloadLen)
	buf, err := EncodeUnsigned(p)
	if err != nil {
		t.Fatalf("EncodeUnsigned: %v", err)
	}
	// Forge payload_len = 513 in the header without growing the buffer.
	buf[payloadLenOff] = 0x02
	buf[payloadLenOff+1] = 0x01

	if _, err := Decode(buf, time.Now()); err != ErrPayloadTooLong {
		t.Fatalf("err = %v, want ErrPayloadTooLong", err)
	}
}

func TestCodec_RejectsTimestampSkew(t *testing.T) {
	p := samplePacket()
	p.TimestampMs = uint64(time.Now().Add(-6 * time.Minute).UnixMilli())
	buf, err := EncodeUnsigned(p)
	if err != nil {
		t.Fatalf("EncodeUnsigned: %v", err)
	}

	if _, err := Decode(buf, time.Now()); err != ErrTimestampSkew {
		t.Fatalf("err = %v, want ErrTimestampSkew", err)
	}
}

func TestCodec_RejectsBadSignatureTrailerLength(t *testing.T) {
	p := samplePacket()
	buf, err := EncodeUnsigned(p)
	if err != nil {
		t.Fatalf("EncodeUnsigned: %v", err)
	}
	buf = append(buf, make([]byte, 10)...) // neither 0 nor 64 trailing bytes

	if _, err := Decode(buf, time.Now()); err != ErrInvalidSignatureLength {
		t.Fatalf("err = %v, want ErrInvalidSignatureLength", err)
	}
}

func TestPacketID_SignaturePresenceDistinguishesFingerprint(t *testing.T) {
	signed := samplePacket()
	signed.Signature = bytes.Repeat([]byte{0x01}, SignatureLen)

	unsigned := samplePacket()
	unsigned.Signature = nil

	if signed.ID() == unsigned.ID() {
		t.Fatal("signed and unsigned variants of the same packet must have distinct ids")
	}
}

func TestPacketID_StableForIdenticalPackets(t *testing.T) {
	a := samplePacket()
	b := samplePacket()
	b.TimestampMs = a.TimestampMs
	b.Payload = a.Payload // payload is not part of the fingerprint

	if a.ID() != b.ID() {
		t.Fatalf("ids differ for identical header fields: %q vs %q", a.ID(), b.ID())
	}
}

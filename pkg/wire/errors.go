package wire

import "errors"

var (
	// ErrShortFrame is returned when a buffer is shorter than the fixed
	// 78-byte header.
	ErrShortFrame = errors.New("wire: frame shorter than header")

	// ErrUnknownType is returned when the type byte is not one of the
	// known message type values.
	ErrUnknownType = errors.New("wire: unknown packet type")

	// ErrTTLOutOfRange is returned when ttl is 0 or greater than MaxTTL.
	ErrTTLOutOfRange = errors.New("wire: ttl out of range")

	// ErrPayloadTooLong is returned when payload_len exceeds MaxPayloadLen,
	// checked before any payload bytes are allocated or copied.
	ErrPayloadTooLong = errors.New("wire: payload exceeds maximum length")

	// ErrTruncatedPayload is returned when the frame is too short to hold
	// the payload_len it declares.
	ErrTruncatedPayload = errors.New("wire: frame shorter than declared payload")

	// ErrTimestampSkew is returned when timestamp_ms is further than
	// MaxClockSkew from the local clock.
	ErrTimestampSkew = errors.New("wire: timestamp outside allowed clock skew")

	// ErrInvalidSignatureLength is returned when a signed-form frame's
	// trailer is not exactly SignatureLen bytes.
	ErrInvalidSignatureLength = errors.New("wire: signature trailer has wrong length")

	// ErrInvalidUTF8 is returned by any payload codec that decodes a
	// string field containing invalid UTF-8.
	ErrInvalidUTF8 = errors.New("wire: invalid utf-8 in payload field")

	// ErrFieldTooLong is returned when a variable-length payload field
	// exceeds its configured cap.
	ErrFieldTooLong = errors.New("wire: payload field exceeds maximum length")

	// ErrInvalidLocation is returned when a location payload's latitude,
	// longitude, or accuracy is out of range, NaN, or infinite.
	ErrInvalidLocation = errors.New("wire: invalid location coordinates")

	// ErrUnknownEnum is returned when an enum-like payload field (emergency
	// kind, receipt kind) carries an undefined value.
	ErrUnknownEnum = errors.New("wire: unknown enum value")

	// ErrPayloadTruncated is returned when a typed payload is shorter than
	// its fixed-size prefix requires.
	ErrPayloadTruncated = errors.New("wire: payload truncated")

	// ErrTooManyEntries is returned when a discovery/topology or batched
	// receipt payload declares more entries than its cap allows.
	ErrTooManyEntries = errors.New("wire: too many entries in payload")
)

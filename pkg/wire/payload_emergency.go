package wire

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// EmergencyKind enumerates the alert categories carried by an emergency
// payload.
type EmergencyKind uint8

const (
	EmergencyKindGeneral  EmergencyKind = 0x00
	EmergencyKindMedical  EmergencyKind = 0x01
	EmergencyKindFire     EmergencyKind = 0x02
	EmergencyKindSecurity EmergencyKind = 0x03
	EmergencyKindWeather  EmergencyKind = 0x04
)

// IsValid reports whether k is a defined emergency kind.
func (k EmergencyKind) IsValid() bool {
	switch k {
	case EmergencyKindGeneral, EmergencyKindMedical, EmergencyKindFire,
		EmergencyKindSecurity, EmergencyKindWeather:
		return true
	default:
		return false
	}
}

// MaxEmergencyMessageLen bounds the emergency payload's free-text field.
const MaxEmergencyMessageLen = 256

const emergencyFixedLen = 1 + 8 + 8 + 2 // kind | lat | lon | msgLen

// EmergencyPayload is kind(u8) | lat(f64) | lon(f64) | msgLen(u16) |
// msg(UTF-8, <=256 bytes).
type EmergencyPayload struct {
	Kind      EmergencyKind
	Latitude  float64
	Longitude float64
	Message   string
}

// EncodeEmergencyPayload validates and serializes an emergency alert.
func EncodeEmergencyPayload(e *EmergencyPayload) ([]byte, error) {
	if !e.Kind.IsValid() {
		return nil, ErrUnknownEnum
	}
	if !validLocation(e.Latitude, e.Longitude, 0) {
		return nil, ErrInvalidLocation
	}
	if !utf8.ValidString(e.Message) {
		return nil, ErrInvalidUTF8
	}
	msg := []byte(e.Message)
	if len(msg) > MaxEmergencyMessageLen {
		return nil, ErrFieldTooLong
	}

	buf := make([]byte, emergencyFixedLen+len(msg))
	buf[0] = byte(e.Kind)
	binary.BigEndian.PutUint64(buf[1:9], math.Float64bits(e.Latitude))
	binary.BigEndian.PutUint64(buf[9:17], math.Float64bits(e.Longitude))
	binary.BigEndian.PutUint16(buf[17:19], uint16(len(msg)))
	copy(buf[emergencyFixedLen:], msg)
	return buf, nil
}

// DecodeEmergencyPayload parses and validates an emergency alert.
func DecodeEmergencyPayload(data []byte) (*EmergencyPayload, error) {
	if len(data) < emergencyFixedLen {
		return nil, ErrPayloadTruncated
	}
	kind := EmergencyKind(data[0])
	if !kind.IsValid() {
		return nil, ErrUnknownEnum
	}
	lat := math.Float64frombits(binary.BigEndian.Uint64(data[1:9]))
	lon := math.Float64frombits(binary.BigEndian.Uint64(data[9:17]))
	if !validLocation(lat, lon, 0) {
		return nil, ErrInvalidLocation
	}
	msgLen := int(binary.BigEndian.Uint16(data[17:19]))
	if msgLen > MaxEmergencyMessageLen {
		return nil, ErrFieldTooLong
	}
	if len(data) != emergencyFixedLen+msgLen {
		return nil, ErrPayloadTruncated
	}
	msg := data[emergencyFixedLen:]
	if !utf8.Valid(msg) {
		return nil, ErrInvalidUTF8
	}
	return &EmergencyPayload{Kind: kind, Latitude: lat, Longitude: lon, Message: string(msg)}, nil
}

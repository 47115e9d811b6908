package wire

import (
	"encoding/binary"
	"math"
)

// LocationPayloadLen is the fixed wire size of a location update:
// lat(f64) | lon(f64) | accuracy(f32) | alt(f32) | speed(f32) | bearing(f32).
const LocationPayloadLen = 8 + 8 + 4 + 4 + 4 + 4

// LocationPayload carries a GPS fix.
type LocationPayload struct {
	Latitude  float64
	Longitude float64
	Accuracy  float32
	Altitude  float32
	Speed     float32
	Bearing   float32
}

func validLocation(lat, lon float64, accuracy float32) bool {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return false
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return false
	}
	if math.IsNaN(float64(accuracy)) || math.IsInf(float64(accuracy), 0) || accuracy < 0 {
		return false
	}
	return true
}

// EncodeLocationPayload validates and serializes a location fix.
func EncodeLocationPayload(l *LocationPayload) ([]byte, error) {
	if !validLocation(l.Latitude, l.Longitude, l.Accuracy) {
		return nil, ErrInvalidLocation
	}
	buf := make([]byte, LocationPayloadLen)
	binary.BigEndian.PutUint64(buf[0:8], math.Float64bits(l.Latitude))
	binary.BigEndian.PutUint64(buf[8:16], math.Float64bits(l.Longitude))
	binary.BigEndian.PutUint32(buf[16:20], math.Float32bits(l.Accuracy))
	binary.BigEndian.PutUint32(buf[20:24], math.Float32bits(l.Altitude))
	binary.BigEndian.PutUint32(buf[24:28], math.Float32bits(l.Speed))
	binary.BigEndian.PutUint32(buf[28:32], math.Float32bits(l.Bearing))
	return buf, nil
}

// DecodeLocationPayload parses and validates a location fix.
func DecodeLocationPayload(data []byte) (*LocationPayload, error) {
	if len(data) != LocationPayloadLen {
		return nil, ErrPayloadTruncated
	}
	l := &LocationPayload{
		Latitude:  math.Float64frombits(binary.BigEndian.Uint64(data[0:8])),
		Longitude: math.Float64frombits(binary.BigEndian.Uint64(data[8:16])),
		Accuracy:  math.Float32frombits(binary.BigEndian.Uint32(data[16:20])),
		Altitude:  math.Float32frombits(binary.BigEndian.Uint32(data[20:24])),
		Speed:     math.Float32frombits(binary.BigEndian.Uint32(data[24:28])),
		Bearing:   math.Float32frombits(binary.BigEndian.Uint32(data[28:32])),
	}
	if !validLocation(l.Latitude, l.Longitude, l.Accuracy) {
		return nil, ErrInvalidLocation
	}
	return l, nil
}

// Package polyline implements the encoded polyline format: zigzag-encoded
// coordinate deltas at 1e-5 degree precision, packed in 5-bit chunks.
package polyline

import (
	"errors"
	"math"
	"strings"

	"github.com/heavyhaul/backend/internal/models"
)

const precision = 1e5

var ErrMalformed = errors.New("malformed polyline")

// Decode returns the points of an encoded polyline in order.
func Decode(encoded string) ([]models.LatLng, error) {
	points := []models.LatLng{}
	var lat, lng int64
	for i := 0; i < len(encoded); {
		dLat, next, err := decodeValue(encoded, i)
		if err != nil {
			return nil, err
		}
		dLng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		i = next
		lat += dLat
		lng += dLng
		points = append(points, models.LatLng{Lat: float64(lat) / precision, Lng: float64(lng) / precision})
	}
	return points, nil
}

func decodeValue(s string, i int) (int64, int, error) {
	var result int64
	var shift uint
	for {
		if i >= len(s) {
			return 0, i, ErrMalformed
		}
		b := int64(s[i]) - 63
		i++
		if b < 0 || b > 0x3f || shift > 60 {
			return 0, i, ErrMalformed
		}
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), i, nil
	}
	return result >> 1, i, nil
}

// Encode is the inverse of Decode.
func Encode(points []models.LatLng) string {
	var sb strings.Builder
	var prevLat, prevLng int64
	for _, p := range points {
		lat := int64(math.Round(p.Lat * precision))
		lng := int64(math.Round(p.Lng * precision))
		encodeValue(&sb, lat-prevLat)
		encodeValue(&sb, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return sb.String()
}

func encodeValue(sb *strings.Builder, v int64) {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		sb.WriteByte(byte((0x20 | (u & 0x1f)) + 63))
		u >>= 5
	}
	sb.WriteByte(byte(u + 63))
}

// Package geohash turns artist coordinates into geohash strings so that
// artists can be grouped by area with a prefix match.
package geohash

import (
	"github.com/mmcloughlin/geohash"
)

// MaxPrecision is the longest geohash Encode produces.
const MaxPrecision = 12

// Encode hashes the location to a string of precision characters. It returns
// nil when either coordinate is missing or out of range, or when precision is
// 0. Precisions above MaxPrecision are clamped.
func Encode(latitude, longitude *float64, precision uint) *string {
	if latitude == nil || longitude == nil || precision == 0 {
		return nil
	}
	lat, lon := *latitude, *longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil
	}
	if precision > MaxPrecision {
		precision = MaxPrecision
	}
	hsh := geohash.EncodeWithPrecision(lat, lon, precision)
	return &hsh
}

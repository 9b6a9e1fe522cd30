package geohash_test

import (
	"strings"
	"testing"

	"github.com/sparkify/datalake/geohash"
)

func f64(v float64) *float64 { return &v }

func TestEncode(t *testing.T) {
	tests := []struct {
		name      string
		lat, lon  *float64
		precision uint
		expNil    bool
		expLen    int
	}{
		{
			name:      "simple",
			lat:       f64(31.1),
			lon:       f64(42.2),
			precision: 6,
			expLen:    6,
		},
		{
			name:      "clamped",
			lat:       f64(40.71455),
			lon:       f64(-74.00712),
			precision: 20,
			expLen:    geohash.MaxPrecision,
		},
		{
			name:      "missing latitude",
			lon:       f64(-74.00712),
			precision: 6,
			expNil:    true,
		},
		{
			name:      "missing longitude",
			lat:       f64(40.71455),
			precision: 6,
			expNil:    true,
		},
		{
			name:      "disabled",
			lat:       f64(40.71455),
			lon:       f64(-74.00712),
			precision: 0,
			expNil:    true,
		},
		{
			name:      "out of range",
			lat:       f64(140.1),
			lon:       f64(-74.00712),
			precision: 6,
			expNil:    true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			hash := geohash.Encode(test.lat, test.lon, test.precision)
			if test.expNil {
				if hash != nil {
					t.Fatalf("expected no hash, got %v", *hash)
				}
				return
			}
			if hash == nil {
				t.Fatalf("expected a hash")
			}
			if len(*hash) != test.expLen {
				t.Fatalf("unexpected length of hash %v", *hash)
			}
		})
	}
}

func TestEncodeNearbyPrefix(t *testing.T) {
	// two points a few hundred meters apart in lower Manhattan
	a := geohash.Encode(f64(40.71455), f64(-74.00712), 9)
	b := geohash.Encode(f64(40.71600), f64(-74.00900), 9)
	if !strings.HasPrefix(*b, (*a)[:5]) {
		t.Fatalf("expected shared prefix: %s %s", *a, *b)
	}
	if !strings.HasPrefix(*a, "dr5reg") {
		t.Fatalf("unexpected hash for lower Manhattan: %s", *a)
	}
}

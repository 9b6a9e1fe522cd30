package datalake

// This code adapted from https://github.com/cloudfoundry/bytefmt (Apache V2)

import (
	"fmt"
	"strings"
)

const (
	bbyte    = 1.0
	kilobyte = 1024 * bbyte
	megabyte = 1024 * kilobyte
	gigabyte = 1024 * megabyte
	terabyte = 1024 * gigabyte
)

// Bytes is a wrapper type for numbers which represent bytes. It provides a
// String method which produces sensible readable output like 1.2G or 4M, etc.
// Table stats carry the size of what was written as Bytes.
type Bytes uint64

// String returns a human-readable byte string of the form 10M, 12.5K, and so
// forth, using the largest of T, G, M, K and B which keeps the number at or
// above 1.
func (b Bytes) String() string {
	unit := ""
	value := float64(b)

	switch {
	case b >= terabyte:
		unit = "T"
		value = value / terabyte
	case b >= gigabyte:
		unit = "G"
		value = value / gigabyte
	case b >= megabyte:
		unit = "M"
		value = value / megabyte
	case b >= kilobyte:
		unit = "K"
		value = value / kilobyte
	case b >= bbyte:
		unit = "B"
	case b == 0:
		return "0"
	}

	stringValue := strings.TrimSuffix(fmt.Sprintf("%.1f", value), ".0")
	return stringValue + unit
}

// MarshalText renders b the same way String does, so Bytes reads well in
// JSON documents and structured logs.
func (b Bytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

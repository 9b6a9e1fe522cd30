// Package gen holds the random value generators the fake data sets are built
// from. Values are zipf distributed so that a few of them are very common,
// which is how song titles, artists and users behave in a real play log.
package gen

import (
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"hash"
	"math"
	"math/rand"
	"time"
)

// Generator produces repeatable pseudorandom values. It is not threadsafe.
type Generator struct {
	r     *rand.Rand
	zs    map[int]*rand.Zipf
	times map[time.Time]time.Duration
	hsh   hash.Hash
}

// NewGenerator gets a Generator whose output is fully determined by seed.
func NewGenerator(seed int64) *Generator {
	r := rand.New(rand.NewSource(seed))
	return &Generator{
		r:     r,
		zs:    make(map[int]*rand.Zipf),
		times: make(map[time.Time]time.Duration),
		hsh:   sha1.New(),
	}
}

// String returns a string with the given length (<=32), from a set of
// possible strings of size cardinality.
func (g *Generator) String(length, cardinality int) string {
	if length > 32 {
		length = 32
	}
	return g.hashed(g.Uint64(cardinality))[:length]
}

// ID returns the length (<=32) character string identifying n. The same n
// always gets the same ID.
func (g *Generator) ID(prefix string, n uint64, length int) string {
	if length > 32 {
		length = 32
	}
	return prefix + g.hashed(n)[:length]
}

func (g *Generator) hashed(val uint64) string {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, val)
	_, _ = g.hsh.Write(b) // no need to check err
	sum := g.hsh.Sum(nil)
	g.hsh.Reset()
	return base32.StdEncoding.EncodeToString(sum)
}

// Uint64 gets a zipfian random uint64 in [0, cardinality).
func (g *Generator) Uint64(cardinality int) uint64 {
	if cardinality <= 1 {
		return 0
	}
	z, ok := g.zs[cardinality]
	if !ok {
		// rand.Zipf generates values in [0, imax]
		imax := uint64(cardinality) - 1
		v := 0.05 * float64(imax)
		if v < 1.0 {
			v = 1.0
		}
		z = rand.NewZipf(g.r, 1.1, v, imax)
		g.zs[cardinality] = z
	}
	return z.Uint64()
}

// Intn is a uniform random int in [0, n).
func (g *Generator) Intn(n int) int {
	return g.r.Intn(n)
}

// Float64 is a uniform random float in [min, max) rounded to the given number
// of decimal places.
func (g *Generator) Float64(min, max float64, places int) float64 {
	f := min + g.r.Float64()*(max-min)
	pow := math.Pow10(places)
	return math.Round(f*pow) / pow
}

// Time returns a time increasing from the "from" time with a random delta of
// less than maxDelta.
func (g *Generator) Time(from time.Time, maxDelta time.Duration) time.Time {
	delta := g.times[from] + time.Duration(g.r.Uint64()%uint64(maxDelta))
	g.times[from] = delta
	return from.Add(delta)
}

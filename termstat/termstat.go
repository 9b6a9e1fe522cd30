// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package termstat provides a stats implementation which keeps the statistics
// of a run and prints a summary of them to the given writer at the end. It is
// meant for use at the terminal in lieu of an actual collector writing to an
// external tool like a Pushgateway. Histograms and sets are not kept.
package termstat

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// Collector collects stats and prints them to the terminal
type Collector struct {
	lock    sync.Mutex
	stats   map[string]int64
	gauges  map[string]float64
	timings map[string]time.Duration
	out     io.Writer
}

// NewCollector initializes and returns a new Collector.
func NewCollector(out io.Writer) *Collector {
	return &Collector{
		stats:   make(map[string]int64),
		gauges:  make(map[string]float64),
		timings: make(map[string]time.Duration),
		out:     out,
	}
}

// Count adds value to the named stat at the specified rate.
func (t *Collector) Count(name string, value int64, rate float64, tags ...string) {
	if rate < 1 {
		if rand.Float64() > rate {
			return
		}
	}
	t.lock.Lock()
	t.stats[name] += value
	t.lock.Unlock()
}

// Gauge keeps the last value of the named stat.
func (t *Collector) Gauge(name string, value float64, rate float64, tags ...string) {
	t.lock.Lock()
	t.gauges[name] = value
	t.lock.Unlock()
}

// Histogram does nothing.
func (t *Collector) Histogram(name string, value float64, rate float64, tags ...string) {}

// Set does nothing.
func (t *Collector) Set(name string, value string, rate float64, tags ...string) {}

// Timing adds value to the named duration.
func (t *Collector) Timing(name string, value time.Duration, rate float64, tags ...string) {
	t.lock.Lock()
	t.timings[name] += value
	t.lock.Unlock()
}

// Write prints every stat on its own line, sorted by name.
func (t *Collector) Write() error {
	t.lock.Lock()
	lines := make([]string, 0, len(t.stats)+len(t.gauges)+len(t.timings))
	for name, v := range t.stats {
		lines = append(lines, fmt.Sprintf("%s: %d", name, v))
	}
	for name, v := range t.gauges {
		lines = append(lines, fmt.Sprintf("%s: %g", name, v))
	}
	for name, v := range t.timings {
		lines = append(lines, fmt.Sprintf("%s: %v", name, v.Round(time.Millisecond)))
	}
	t.lock.Unlock()

	sort.Strings(lines)
	sb := strings.Builder{}
	for _, l := range lines {
		_, _ = sb.WriteString(l)
		_ = sb.WriteByte('\n')
	}
	_, err := io.WriteString(t.out, sb.String())
	return err
}

// Package prompush collects pipeline stats in Prometheus collectors and pushes
// them to a Pushgateway once the run is over. A batch job is gone before a
// scrape could reach it, so the gateway holds its last values.
package prompush

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/sparkify/datalake"
)

var _ datalake.Statter = &Statter{}

// Statter is a datalake.Statter recording into a Prometheus registry. Stat
// names become the value of the "name" label.
type Statter struct {
	gatewayURL string
	job        string
	grouping   map[string]string
	reg        *prometheus.Registry

	counts    *prometheus.CounterVec
	gauges    *prometheus.GaugeVec
	durations *prometheus.SummaryVec
	hist      *prometheus.HistogramVec
}

// Option is a functional option for NewStatter.
type Option func(s *Statter)

// OptGrouping adds a grouping label to the pushed metrics, such as the run id.
func OptGrouping(name, value string) Option {
	return func(s *Statter) {
		s.grouping[name] = value
	}
}

// NewStatter gets a Statter which pushes to the Pushgateway at gatewayURL
// under job.
func NewStatter(gatewayURL, job string, opts ...Option) (*Statter, error) {
	if gatewayURL == "" {
		return nil, errors.New("pushgateway URL is required")
	}
	if job == "" {
		job = "datalake"
	}
	s := &Statter{
		gatewayURL: gatewayURL,
		job:        job,
		grouping:   make(map[string]string),
		reg:        prometheus.NewRegistry(),
		counts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "datalake_count_total",
			Help: "Rows, files and bytes handled by the ETL, by stat name.",
		}, []string{"name"}),
		gauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "datalake_gauge",
			Help: "Last value of each gauge stat.",
		}, []string{"name"}),
		durations: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "datalake_duration_seconds",
			Help:       "Duration of ETL stages in seconds, by stat name.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"name"}),
		hist: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "datalake_histogram",
			Help:    "Distribution of histogram stats.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"name"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, c := range []prometheus.Collector{s.counts, s.gauges, s.durations, s.hist} {
		if err := s.reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering collector")
		}
	}
	return s, nil
}

// Registry returns the registry the stats are recorded in.
func (s *Statter) Registry() *prometheus.Registry {
	return s.reg
}

// Count implements datalake.Statter.
func (s *Statter) Count(name string, value int64, rate float64, tags ...string) {
	if value < 0 {
		return
	}
	s.counts.WithLabelValues(name).Add(float64(value))
}

// Gauge implements datalake.Statter.
func (s *Statter) Gauge(name string, value float64, rate float64, tags ...string) {
	s.gauges.WithLabelValues(name).Set(value)
}

// Histogram implements datalake.Statter.
func (s *Statter) Histogram(name string, value float64, rate float64, tags ...string) {
	s.hist.WithLabelValues(name).Observe(value)
}

// Set does nothing.
func (s *Statter) Set(name string, value string, rate float64, tags ...string) {}

// Timing implements datalake.Statter.
func (s *Statter) Timing(name string, value time.Duration, rate float64, tags ...string) {
	s.durations.WithLabelValues(name).Observe(value.Seconds())
}

// Push replaces the job's metrics on the Pushgateway with the current ones.
func (s *Statter) Push(ctx context.Context) error {
	p := push.New(s.gatewayURL, s.job).Gatherer(s.reg)
	for name, value := range s.grouping {
		p = p.Grouping(name, value)
	}
	return errors.Wrap(p.PushContext(ctx), "pushing metrics")
}

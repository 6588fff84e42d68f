package metrics

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Prometheus-compatible Metrics Registry
// ---------------------------------------------------------------------------

// Registry holds all pipeline metrics.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
	histos   map[string]*Histogram

	startTime time.Time
}

// NewRegistry creates a new metrics registry.
func NewRegistry() *Registry {
	return &Registry{
		counters:  make(map[string]*Counter),
		gauges:    make(map[string]*Gauge),
		histos:    make(map[string]*Histogram),
		startTime: time.Now(),
	}
}

// Counter returns or creates a counter metric.
func (r *Registry) Counter(name, help string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{name: name, help: help}
	r.counters[name] = c
	return c
}

// Gauge returns or creates a gauge metric.
func (r *Registry) Gauge(name, help string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{name: name, help: help}
	r.gauges[name] = g
	return g
}

// Histogram returns or creates a histogram metric.
func (r *Registry) Histogram(name, help string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.histos[name]; ok {
		return h
	}
	h := NewHistogram(name, help, buckets)
	r.histos[name] = h
	return h
}

// Reset zeroes every registered metric. Used between pipeline runs in tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.counters {
		c.value.Store(0)
	}
	for _, g := range r.gauges {
		g.bits.Store(0)
	}
	for _, h := range r.histos {
		h.reset()
	}
}

// Export returns all metrics in Prometheus text format.
func (r *Registry) Export() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP process_uptime_seconds Time since process start.\n")
	b.WriteString("# TYPE process_uptime_seconds gauge\n")
	fmt.Fprintf(&b, "process_uptime_seconds %f\n", time.Since(r.startTime).Seconds())

	for _, c := range r.counters {
		fmt.Fprintf(&b, "# HELP %s %s\n", c.name, c.help)
		fmt.Fprintf(&b, "# TYPE %s counter\n", c.name)
		fmt.Fprintf(&b, "%s %d\n", c.name, c.value.Load())
	}

	for _, g := range r.gauges {
		fmt.Fprintf(&b, "# HELP %s %s\n", g.name, g.help)
		fmt.Fprintf(&b, "# TYPE %s gauge\n", g.name)
		fmt.Fprintf(&b, "%s %f\n", g.name, g.Get())
	}

	for _, h := range r.histos {
		h.export(&b)
	}

	return b.String()
}

// ---------------------------------------------------------------------------
// Counter
// ---------------------------------------------------------------------------

// Counter is a monotonically increasing metric.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds the given value to the counter.
func (c *Counter) Add(v int64) {
	c.value.Add(v)
}

// Value returns the current counter value.
func (c *Counter) Value() int64 {
	return c.value.Load()
}

// ---------------------------------------------------------------------------
// Gauge
// ---------------------------------------------------------------------------

// Gauge is a metric that can go up and down.
type Gauge struct {
	name string
	help string
	bits atomic.Uint64
}

// Set sets the gauge to the given value.
func (g *Gauge) Set(v float64) {
	g.bits.Store(math.Float64bits(v))
}

// Add adds the given value to the gauge.
func (g *Gauge) Add(v float64) {
	for {
		old := g.bits.Load()
		newVal := math.Float64frombits(old) + v
		if g.bits.CompareAndSwap(old, math.Float64bits(newVal)) {
			return
		}
	}
}

// Get returns the current gauge value.
func (g *Gauge) Get() float64 {
	return math.Float64frombits(g.bits.Load())
}

// ---------------------------------------------------------------------------
// Histogram
// ---------------------------------------------------------------------------

// Histogram tracks value distributions.
type Histogram struct {
	name    string
	help    string
	buckets []float64
	counts  []atomic.Int64
	sum     atomic.Int64
	count   atomic.Int64
}

// NewHistogram creates a histogram with the given bucket upper bounds.
func NewHistogram(name, help string, buckets []float64) *Histogram {
	return &Histogram{
		name:    name,
		help:    help,
		buckets: buckets,
		counts:  make([]atomic.Int64, len(buckets)),
	}
}

// Observe records a value.
func (h *Histogram) Observe(v float64) {
	for i, bound := range h.buckets {
		if v <= bound {
			h.counts[i].Add(1)
		}
	}

	h.sum.Add(int64(v * 1e6)) // fixed-point, preserves fractional values
	h.count.Add(1)
}

// Count returns the number of observed values.
func (h *Histogram) Count() int64 {
	return h.count.Load()
}

func (h *Histogram) reset() {
	for i := range h.counts {
		h.counts[i].Store(0)
	}
	h.sum.Store(0)
	h.count.Store(0)
}

func (h *Histogram) export(b *strings.Builder) {
	fmt.Fprintf(b, "# HELP %s %s\n", h.name, h.help)
	fmt.Fprintf(b, "# TYPE %s histogram\n", h.name)

	for i, bound := range h.buckets {
		fmt.Fprintf(b, "%s_bucket{le=\"%g\"} %d\n", h.name, bound, h.counts[i].Load())
	}
	fmt.Fprintf(b, "%s_bucket{le=\"+Inf\"} %d\n", h.name, h.count.Load())
	fmt.Fprintf(b, "%s_sum %f\n", h.name, float64(h.sum.Load())/1e6)
	fmt.Fprintf(b, "%s_count %d\n", h.name, h.count.Load())
}

// ---------------------------------------------------------------------------
// Default Registry
// ---------------------------------------------------------------------------

var defaultRegistry = NewRegistry()

// Default returns the default metrics registry.
func Default() *Registry {
	return defaultRegistry
}

// ---------------------------------------------------------------------------
// Pre-defined Pipeline Metrics
// ---------------------------------------------------------------------------

var (
	// Ingestion metrics
	IngestFlightRows  = defaultRegistry.Counter("delaymodel_ingest_flight_rows_total", "Flight rows read from the flights table")
	IngestAirportRows = defaultRegistry.Counter("delaymodel_ingest_airport_rows_total", "Rows read from the airports reference table")
	IngestAirlineRows = defaultRegistry.Counter("delaymodel_ingest_airline_rows_total", "Rows read from the airlines reference table")

	// Cleaning metrics
	CleanKeptRows    = defaultRegistry.Counter("delaymodel_clean_kept_rows_total", "Rows surviving the cleaning stage")
	CleanDroppedRows = defaultRegistry.Counter("delaymodel_clean_dropped_rows_total", "Rows dropped during cleaning for missing fields")

	// Aggregation metrics
	DelayMinutes = defaultRegistry.Histogram("delaymodel_delay_minutes", "Observed departure delays in minutes",
		[]float64{-15, 0, 5, 15, 30, 60, 120, 240})

	// Feature metrics
	FeaturesUnseen = defaultRegistry.Counter("delaymodel_features_unseen_total", "Airport codes encoded at transform time that were absent from training")

	// Regression metrics
	ModelFits     = defaultRegistry.Counter("delaymodel_regression_fits_total", "Total model fits, including cross-validation folds")
	SingularFits  = defaultRegistry.Counter("delaymodel_regression_singular_fits_total", "Fits that required the minimum-norm fallback solve")
	HoldoutMSE    = defaultRegistry.Gauge("delaymodel_holdout_mse", "Mean squared error of the final model on the holdout window")
)

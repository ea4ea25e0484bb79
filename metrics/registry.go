package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Registry holds registered metrics keyed by name. Metrics are created on
// first access so callers never need to check for nil. All methods are safe
// for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

// Counter returns the counter with the given name, creating it if needed.
func (r *Registry) Counter(name string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[name]
	if !ok {
		c = NewCounter(name)
		r.counters[name] = c
	}
	return c
}

// Gauge returns the gauge with the given name, creating it if needed.
func (r *Registry) Gauge(name string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gauges[name]
	if !ok {
		g = NewGauge(name)
		r.gauges[name] = g
	}
	return g
}

// Histogram returns the histogram with the given name, creating it if needed.
func (r *Registry) Histogram(name string) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.histograms[name]
	if !ok {
		h = NewHistogram(name)
		r.histograms[name] = h
	}
	return h
}

// Each calls fn for every registered metric name, sorted, with a current
// numeric snapshot. Histograms report their observation count.
func (r *Registry) Each(fn func(name string, value float64)) {
	r.mu.RLock()
	names := make([]string, 0, len(r.counters)+len(r.gauges)+len(r.histograms))
	values := make(map[string]float64)
	for n, c := range r.counters {
		names = append(names, n)
		values[n] = float64(c.Value())
	}
	for n, g := range r.gauges {
		names = append(names, n)
		values[n] = float64(g.Value())
	}
	for n, h := range r.histograms {
		names = append(names, n)
		values[n] = float64(h.Count())
	}
	r.mu.RUnlock()

	sort.Strings(names)
	for _, n := range names {
		fn(n, values[n])
	}
}

// WritePrometheus renders all registered metrics in Prometheus text
// exposition format. Counters and gauges emit a single sample; histograms
// emit _count, _sum, _min, _max, and _mean samples. An optional namespace is
// prepended to every metric name.
func (r *Registry) WritePrometheus(w io.Writer, namespace string) error {
	r.mu.RLock()
	counters := make([]*Counter, 0, len(r.counters))
	for _, c := range r.counters {
		counters = append(counters, c)
	}
	gauges := make([]*Gauge, 0, len(r.gauges))
	for _, g := range r.gauges {
		gauges = append(gauges, g)
	}
	histograms := make([]*Histogram, 0, len(r.histograms))
	for _, h := range r.histograms {
		histograms = append(histograms, h)
	}
	r.mu.RUnlock()

	sort.Slice(counters, func(i, j int) bool { return counters[i].Name() < counters[j].Name() })
	sort.Slice(gauges, func(i, j int) bool { return gauges[i].Name() < gauges[j].Name() })
	sort.Slice(histograms, func(i, j int) bool { return histograms[i].Name() < histograms[j].Name() })

	for _, c := range counters {
		name := promName(namespace, c.Name())
		if _, err := fmt.Fprintf(w, "# TYPE %s counter\n%s %d\n", name, name, c.Value()); err != nil {
			return err
		}
	}
	for _, g := range gauges {
		name := promName(namespace, g.Name())
		if _, err := fmt.Fprintf(w, "# TYPE %s gauge\n%s %d\n", name, name, g.Value()); err != nil {
			return err
		}
	}
	for _, h := range histograms {
		name := promName(namespace, h.Name())
		if _, err := fmt.Fprintf(w, "# TYPE %s summary\n%s_count %d\n%s_sum %g\n%s_min %g\n%s_max %g\n%s_mean %g\n",
			name, name, h.Count(), name, h.Sum(), name, h.Min(), name, h.Max(), name, h.Mean()); err != nil {
			return err
		}
	}
	return nil
}

// promName joins an optional namespace and a metric name, replacing
// characters Prometheus does not accept.
func promName(namespace, name string) string {
	clean := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	if namespace == "" {
		return clean.Replace(name)
	}
	return clean.Replace(namespace) + "_" + clean.Replace(name)
}

package metrics

import (
	"net/http"
	"time"
)

// Options for initializing metrics collection.
type Options struct {

	// Common prefix for the metric names. When empty, scopedheaders
	// is used.
	Prefix string

	// If set, Go runtime and process metrics are collected in
	// addition to the header mutation metrics.
	EnableRuntimeMetrics bool

	// Buckets of the duration histograms. Defaults to
	// prometheus.DefBuckets.
	HistogramBuckets []float64
}

// Metrics is the interface used by the header mutation components to
// report their activity.
type Metrics interface {

	// IncMutations counts a non-empty scope applied to a header set.
	IncMutations(direction, scope string)

	// IncFormatErrors counts a header value omitted because it could
	// not be formatted.
	IncFormatErrors(direction, header string)

	// MeasureApply records the time spent applying a mutation chain.
	MeasureApply(direction string, start time.Time)

	// IncConfigReloads counts the configuration reload attempts.
	IncConfigReloads(success bool)

	// RegisterHandler exposes the collected metrics on mux.
	RegisterHandler(path string, mux *http.ServeMux)
}

type void struct{}

// Void discards all metrics.
var Void Metrics = void{}

func (void) IncMutations(string, string)            {}
func (void) IncFormatErrors(string, string)         {}
func (void) MeasureApply(string, time.Time)         {}
func (void) IncConfigReloads(bool)                  {}
func (void) RegisterHandler(string, *http.ServeMux) {}

package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	promNamespace         = "scopedheaders"
	promMutationSubsystem = "mutation"
	promConfigSubsystem   = "config"
)

// Prometheus implements the prometheus metrics backend.
type Prometheus struct {
	mutationsM    *prometheus.CounterVec
	formatErrorsM *prometheus.CounterVec
	applyM        *prometheus.HistogramVec
	reloadsM      *prometheus.CounterVec

	opts     Options
	registry *prometheus.Registry
	handler  http.Handler
}

// NewPrometheus returns a new Prometheus metric backend.
func NewPrometheus(opts Options) *Prometheus {
	if len(opts.HistogramBuckets) == 0 {
		opts.HistogramBuckets = prometheus.DefBuckets
	}

	namespace := promNamespace
	if opts.Prefix != "" {
		namespace = strings.TrimSuffix(opts.Prefix, ".")
	}

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: promMutationSubsystem,
		Name:      "scopes_total",
		Help:      "The total of applied header mutation scopes.",
	}, []string{"direction", "scope"})

	formatErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: promMutationSubsystem,
		Name:      "format_errors_total",
		Help:      "The total of header values omitted because they could not be formatted.",
	}, []string{"direction", "header"})

	apply := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: promMutationSubsystem,
		Name:      "apply_duration_seconds",
		Help:      "Duration in seconds of applying a header mutation chain.",
		Buckets:   opts.HistogramBuckets,
	}, []string{"direction"})

	reloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: promConfigSubsystem,
		Name:      "reloads_total",
		Help:      "The total of configuration reload attempts.",
	}, []string{"result"})

	p := &Prometheus{
		mutationsM:    mutations,
		formatErrorsM: formatErrors,
		applyM:        apply,
		reloadsM:      reloads,
		opts:          opts,
		registry:      prometheus.NewRegistry(),
	}

	p.registerMetrics()
	return p
}

// sinceS returns the seconds passed since the start time until now.
func (p *Prometheus) sinceS(start time.Time) float64 {
	return time.Since(start).Seconds()
}

func (p *Prometheus) registerMetrics() {
	p.registry.MustRegister(p.mutationsM)
	p.registry.MustRegister(p.formatErrorsM)
	p.registry.MustRegister(p.applyM)
	p.registry.MustRegister(p.reloadsM)

	// Register prometheus runtime collectors if required.
	if p.opts.EnableRuntimeMetrics {
		p.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		p.registry.MustRegister(collectors.NewGoCollector())
	}
}

func (p *Prometheus) CreateHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) getHandler() http.Handler {
	if p.handler != nil {
		return p.handler
	}

	p.handler = p.CreateHandler()
	return p.handler
}

// RegisterHandler satisfies Metrics interface.
func (p *Prometheus) RegisterHandler(path string, mux *http.ServeMux) {
	mux.Handle(path, p.getHandler())
}

// IncMutations satisfies Metrics interface.
func (p *Prometheus) IncMutations(direction, scope string) {
	p.mutationsM.WithLabelValues(direction, scope).Inc()
}

// IncFormatErrors satisfies Metrics interface. Header names are
// lower-cased to keep the label values stable.
func (p *Prometheus) IncFormatErrors(direction, header string) {
	p.formatErrorsM.WithLabelValues(direction, strings.ToLower(header)).Inc()
}

// MeasureApply satisfies Metrics interface.
func (p *Prometheus) MeasureApply(direction string, start time.Time) {
	p.applyM.WithLabelValues(direction).Observe(p.sinceS(start))
}

// IncConfigReloads satisfies Metrics interface.
func (p *Prometheus) IncConfigReloads(success bool) {
	result := "failure"
	if success {
		result = "success"
	}

	p.reloadsM.WithLabelValues(result).Inc()
}

package mutation

import (
	"time"

	"github.com/zalando/scopedheaders/formatter"
	"github.com/zalando/scopedheaders/headers"
	"github.com/zalando/scopedheaders/logging"
	"github.com/zalando/scopedheaders/metrics"
)

// Options of the executor.
type Options struct {

	// Log receives a warning for every omitted header value. Defaults
	// to logging.New().
	Log logging.Logger

	// Metrics defaults to metrics.Void.
	Metrics metrics.Metrics
}

// Executor applies mutation chains and reports what happened. It is
// safe for concurrent use.
type Executor struct {
	log     logging.Logger
	metrics metrics.Metrics
}

// NewExecutor creates an executor.
func NewExecutor(o Options) *Executor {
	if o.Log == nil {
		o.Log = logging.New()
	}

	if o.Metrics == nil {
		o.Metrics = metrics.Void
	}

	return &Executor{log: o.Log, metrics: o.Metrics}
}

// Request applies the request chain of src to the headers of a request
// on its way upstream. The upstream host is not known yet, so the
// upstream metadata of ctx is ignored.
func (e *Executor) Request(src Source, h headers.Container, ctx *formatter.Context) Stats {
	if ctx != nil && ctx.Upstream != nil {
		ctx = ctx.WithUpstream(nil)
	}

	return e.Apply(Request, chainOf(src, Request), h, ctx)
}

// Response applies the response chain of src to the headers of a
// response on its way downstream. ctx is expected to carry the
// metadata of the upstream host that served the request.
func (e *Executor) Response(src Source, h headers.Container, ctx *formatter.Context) Stats {
	return e.Apply(Response, chainOf(src, Response), h, ctx)
}

// Apply applies c to h like the package level Apply, and logs and
// counts the omitted entries.
func (e *Executor) Apply(dir Direction, c Chain, h headers.Container, ctx *formatter.Context) Stats {
	if c.Empty() {
		return Stats{}
	}

	start := time.Now()
	d := dir.String()
	st := apply(c, h, ctx, func(s Scope, entry Entry, err error) {
		e.log.WithFields(map[string]interface{}{
			"direction": d,
			"scope":     s.String(),
			"header":    entry.Name,
		}).Warnf("header value omitted: %v", err)

		e.metrics.IncFormatErrors(d, entry.Name)
	})

	for i, s := range c {
		if !s.Empty() {
			e.metrics.IncMutations(d, Scope(i).String())
		}
	}

	e.metrics.MeasureApply(d, start)
	return st
}

func chainOf(src Source, dir Direction) Chain {
	if src == nil {
		return Chain{}
	}

	return src.Chain(dir)
}

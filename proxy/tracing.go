package proxy

import (
	ot "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

const (
	ComponentTag      = "component"
	ErrorTag          = "error"
	HTTPHostTag       = "http.host"
	HTTPMethodTag     = "http.method"
	HTTPPathTag       = "http.path"
	HTTPStatusCodeTag = "http.status_code"
	SpanKindTag       = "span.kind"
	UpstreamTag       = "upstream.address"
	VirtualHostTag    = "virtual_host"
	RouteTag          = "route"

	RequestEntriesTag  = "header_mutation.request_entries"
	ResponseEntriesTag = "header_mutation.response_entries"
	FormatErrorsTag    = "header_mutation.format_errors"

	SpanKindServer = "server"
	componentName  = "scopedheaders"
)

// OpenTracingParams configures the tracing of the proxy.
type OpenTracingParams struct {

	// Tracer defaults to a noop tracer.
	Tracer ot.Tracer

	// InitialSpan is the operation name of the server span. Defaults
	// to ingress.
	InitialSpan string

	// ExcludeTags lists tags that are not set on the spans.
	ExcludeTags []string
}

type proxyTracing struct {
	tracer               ot.Tracer
	initialOperationName string
	excludeTags          map[string]bool
}

func newProxyTracing(p *OpenTracingParams) *proxyTracing {
	if p == nil {
		p = &OpenTracingParams{}
	}

	t := &proxyTracing{
		tracer:               p.Tracer,
		initialOperationName: p.InitialSpan,
		excludeTags:          make(map[string]bool),
	}

	if t.tracer == nil {
		t.tracer = &ot.NoopTracer{}
	}

	if t.initialOperationName == "" {
		t.initialOperationName = "ingress"
	}

	for _, tag := range p.ExcludeTags {
		t.excludeTags[tag] = true
	}

	return t
}

func (t *proxyTracing) startSpan(carrier ot.HTTPHeadersCarrier) ot.Span {
	wireContext, err := t.tracer.Extract(ot.HTTPHeaders, carrier)
	if err != nil {
		return t.tracer.StartSpan(t.initialOperationName)
	}

	return t.tracer.StartSpan(t.initialOperationName, ext.RPCServerOption(wireContext))
}

func (t *proxyTracing) setTag(span ot.Span, key string, value interface{}) *proxyTracing {
	if span == nil || t.excludeTags[key] {
		return t
	}

	span.SetTag(key, value)
	return t
}

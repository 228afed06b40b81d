package proxy

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"

	ot "github.com/opentracing/opentracing-go"

	"github.com/zalando/scopedheaders/formatter"
	"github.com/zalando/scopedheaders/headers"
	"github.com/zalando/scopedheaders/logging"
	"github.com/zalando/scopedheaders/mutation"
	"github.com/zalando/scopedheaders/routeconfig"
)

// Options of the proxy.
type Options struct {

	// Store provides the active configuration. Required.
	Store *routeconfig.Store

	// Executor applies the header mutations. Defaults to an executor
	// logging to Log without metrics.
	Executor *mutation.Executor

	// Log defaults to logging.New().
	Log logging.Logger

	// Transport used to reach the upstream endpoints. Defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper

	// OpenTracing is optional.
	OpenTracing *OpenTracingParams
}

// Proxy is an http.Handler forwarding requests to the endpoints of the
// matched routes.
type Proxy struct {
	store    *routeconfig.Store
	executor *mutation.Executor
	log      logging.Logger
	tracing  *proxyTracing
	reverse  *httputil.ReverseProxy
}

type stateKey struct{}

// requestState is shared by the phases of a single request.
type requestState struct {
	match    *routeconfig.Match
	endpoint *routeconfig.Endpoint
	context  *formatter.Context
	span     ot.Span
	failed   int
}

// New creates a proxy.
func New(o Options) *Proxy {
	if o.Log == nil {
		o.Log = logging.New()
	}

	if o.Executor == nil {
		o.Executor = mutation.NewExecutor(mutation.Options{Log: o.Log})
	}

	p := &Proxy{
		store:    o.Store,
		executor: o.Executor,
		log:      o.Log,
		tracing:  newProxyTracing(o.OpenTracing),
	}

	p.reverse = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleError,
		Transport:      o.Transport,
	}

	return p
}

func sendError(w http.ResponseWriter, code int) {
	http.Error(w, http.StatusText(code), code)
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	span := p.tracing.startSpan(ot.HTTPHeadersCarrier(r.Header))
	defer span.Finish()

	p.tracing.
		setTag(span, ComponentTag, componentName).
		setTag(span, HTTPHostTag, r.Host).
		setTag(span, HTTPMethodTag, r.Method).
		setTag(span, HTTPPathTag, r.URL.Path)

	snapshot := p.store.Get()
	m, ok := snapshot.Match(r.Host, r.URL.Path)
	if !ok {
		p.log.Debugf("no route for %s%s", r.Host, r.URL.Path)
		p.tracing.setTag(span, HTTPStatusCodeTag, http.StatusNotFound)
		sendError(w, http.StatusNotFound)
		return
	}

	p.tracing.
		setTag(span, VirtualHostTag, m.VirtualHost.Name).
		setTag(span, RouteTag, m.Route.Name)

	ep, ok := snapshot.Cluster(m.Route.Cluster).Pick()
	if !ok {
		p.log.Warnf("no endpoints in cluster %q", m.Route.Cluster)
		p.tracing.setTag(span, HTTPStatusCodeTag, http.StatusServiceUnavailable)
		sendError(w, http.StatusServiceUnavailable)
		return
	}

	p.tracing.setTag(span, UpstreamTag, ep.Address)
	state := &requestState{
		match:    m,
		endpoint: ep,
		context: &formatter.Context{
			DownstreamRemoteAddress: r.RemoteAddr,
			Protocol:                r.Proto,
		},
		span: span,
	}

	ctx := ot.ContextWithSpan(r.Context(), span)
	ctx = context.WithValue(ctx, stateKey{}, state)
	p.reverse.ServeHTTP(w, r.WithContext(ctx))
}

func stateFrom(ctx context.Context) *requestState {
	s, _ := ctx.Value(stateKey{}).(*requestState)
	return s
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	s := stateFrom(pr.In.Context())
	pr.SetURL(&url.URL{Scheme: "http", Host: s.endpoint.Address})
	pr.Out.Host = pr.In.Host

	st := p.executor.Request(s.match, headers.HTTP(pr.Out.Header), s.context)
	s.failed += st.Failed
	p.tracing.
		setTag(s.span, RequestEntriesTag, st.Added).
		setTag(s.span, FormatErrorsTag, s.failed)
}

func (p *Proxy) modifyResponse(rsp *http.Response) error {
	s := stateFrom(rsp.Request.Context())
	st := p.executor.Response(s.match, headers.HTTP(rsp.Header), s.context.WithUpstream(s.endpoint.Metadata))
	s.failed += st.Failed
	p.tracing.
		setTag(s.span, ResponseEntriesTag, st.Added).
		setTag(s.span, FormatErrorsTag, s.failed).
		setTag(s.span, HTTPStatusCodeTag, rsp.StatusCode)

	return nil
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	s := stateFrom(r.Context())
	p.log.Errorf("error while proxying to %s: %v", s.endpoint.Address, err)
	p.tracing.
		setTag(s.span, ErrorTag, true).
		setTag(s.span, HTTPStatusCodeTag, http.StatusBadGateway)

	sendError(w, http.StatusBadGateway)
}

// Package proxytest starts a proxy with a fixed configuration snapshot,
// for tests.
package proxytest

import (
	"net/http"
	"net/http/httptest"

	"github.com/zalando/scopedheaders/logging/loggingtest"
	"github.com/zalando/scopedheaders/metrics/metricstest"
	"github.com/zalando/scopedheaders/mutation"
	"github.com/zalando/scopedheaders/proxy"
	"github.com/zalando/scopedheaders/routeconfig"
)

type TestProxy struct {
	URL     string
	Log     *loggingtest.TestLogger
	Metrics *metricstest.MockMetrics
	Store   *routeconfig.Store

	proxy  *proxy.Proxy
	server *httptest.Server
}

type Config struct {
	Snapshot    *routeconfig.Snapshot
	OpenTracing *proxy.OpenTracingParams
}

// New starts a proxy serving the snapshot.
func New(snapshot *routeconfig.Snapshot) *TestProxy {
	return Config{Snapshot: snapshot}.Create()
}

func (c Config) Create() *TestProxy {
	tl := loggingtest.New()
	m := &metricstest.MockMetrics{}

	store := routeconfig.NewStore(routeconfig.StoreOptions{Log: tl, Metrics: m})
	store.Update(c.Snapshot)

	p := proxy.New(proxy.Options{
		Store:       store,
		Executor:    mutation.NewExecutor(mutation.Options{Log: tl, Metrics: m}),
		Log:         tl,
		OpenTracing: c.OpenTracing,
	})

	server := httptest.NewServer(p)
	return &TestProxy{
		URL:     server.URL,
		Log:     tl,
		Metrics: m,
		Store:   store,
		proxy:   p,
		server:  server,
	}
}

// Handler returns the proxy, e.g. to call it without the network.
func (p *TestProxy) Handler() http.Handler {
	return p.proxy
}

func (p *TestProxy) Close() error {
	p.server.Close()
	p.Log.Close()
	return nil
}

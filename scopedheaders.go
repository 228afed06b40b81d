package scopedheaders

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	ot "github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/zalando/scopedheaders/logging"
	"github.com/zalando/scopedheaders/metrics"
	"github.com/zalando/scopedheaders/mutation"
	"github.com/zalando/scopedheaders/proxy"
	"github.com/zalando/scopedheaders/routeconfig"
)

const defaultShutdownTimeout = 10 * time.Second

// Options to start the proxy.
type Options struct {

	// Network address that the proxy should listen on.
	Address string

	// Network address used for exposing the /metrics endpoint. An
	// empty value disables the support listener.
	SupportListener string

	// File containing an Envoy v3 RouteConfiguration. Required.
	RoutesFile string

	// File containing the Envoy v3 ClusterLoadAssignments of the
	// clusters referenced by the routes.
	EndpointsFile string

	// When set, the routes and the endpoints are reloaded at this
	// interval. A failing reload keeps the previous configuration.
	ReloadInterval time.Duration

	// Output file for the application log. Default is /dev/stderr.
	ApplicationLogOutput string

	// Minimum level of the application log entries.
	ApplicationLogLevel log.Level

	// Prefix for application log entries.
	ApplicationLogPrefix string

	// Log in JSON format.
	ApplicationLogJSONEnabled bool

	// Prefix of the metric names.
	MetricsPrefix string

	// Enables the Go runtime and process metrics.
	EnableRuntimeMetrics bool

	// Buckets of the duration histograms.
	HistogramMetricBuckets []float64

	// Tracer used for the proxy spans. Defaults to the global tracer.
	OpenTracer ot.Tracer

	// Name of the server span.
	OpenTracingInitialSpan string

	// Tags not set on the proxy spans.
	OpenTracingExcludedProxyTags []string

	ReadTimeoutServer       time.Duration
	ReadHeaderTimeoutServer time.Duration
	WriteTimeoutServer      time.Duration
	IdleTimeoutServer       time.Duration
	MaxHeaderBytes          int

	TimeoutBackend               time.Duration
	KeepaliveBackend             time.Duration
	ResponseHeaderTimeoutBackend time.Duration
	MaxIdleConnsBackend          int

	// Time to wait for the open connections on shutdown.
	ShutdownTimeout time.Duration

	// Called with the address of the proxy listener once it accepts
	// connections.
	Ready func(addr net.Addr)
}

// initLog returns a function that closes the application log file, if
// one was opened, after the logger was switched back to os.Stderr.
func initLog(o Options) (func(), error) {
	lo := logging.Options{
		ApplicationLogPrefix:      o.ApplicationLogPrefix,
		ApplicationLogLevel:       o.ApplicationLogLevel.String(),
		ApplicationLogJSONEnabled: o.ApplicationLogJSONEnabled,
	}

	closeLog := func() {}
	if o.ApplicationLogOutput != "" {
		f, err := os.OpenFile(o.ApplicationLogOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open application log: %w", err)
		}

		lo.ApplicationLogOutput = f
		closeLog = func() {
			log.SetOutput(os.Stderr)
			if err := f.Close(); err != nil {
				log.Errorf("failed to close application log: %v", err)
			}
		}
	}

	if err := logging.Init(lo); err != nil {
		closeLog()
		return nil, err
	}

	return closeLog, nil
}

func (o Options) transport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   o.TimeoutBackend,
			KeepAlive: o.KeepaliveBackend,
		}).DialContext,
		ResponseHeaderTimeout: o.ResponseHeaderTimeoutBackend,
		MaxIdleConns:          o.MaxIdleConnsBackend,
	}
}

func listen(address string) (net.Listener, error) {
	if address == "" {
		address = ":http"
	}

	return net.Listen("tcp", address)
}

func serve(ctx context.Context, srv *http.Server, l net.Listener, shutdownTimeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(sctx)
	}()

	if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-done
}

func supportServer(o Options, m metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	m.RegisterHandler("/metrics", mux)
	return &http.Server{Handler: mux, ReadHeaderTimeout: o.ReadHeaderTimeoutServer}
}

// RunWithContext starts the proxy and blocks until ctx is done and the
// open connections are closed, or one of the listeners fails.
func RunWithContext(ctx context.Context, o Options) error {
	closeLog, err := initLog(o)
	if err != nil {
		return err
	}
	defer closeLog()

	if o.RoutesFile == "" {
		return errors.New("missing routes file")
	}

	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = defaultShutdownTimeout
	}

	m := metrics.NewPrometheus(metrics.Options{
		Prefix:               o.MetricsPrefix,
		EnableRuntimeMetrics: o.EnableRuntimeMetrics,
		HistogramBuckets:     o.HistogramMetricBuckets,
	})

	lg := logging.New()
	store := routeconfig.NewStore(routeconfig.StoreOptions{Log: lg, Metrics: m})
	load := routeconfig.FileLoader(o.RoutesFile, o.EndpointsFile)
	if err := store.Load(load); err != nil {
		return err
	}

	l, err := listen(o.Address)
	if err != nil {
		return err
	}

	var sl net.Listener
	if o.SupportListener != "" {
		sl, err = listen(o.SupportListener)
		if err != nil {
			l.Close()
			return fmt.Errorf("failed to start support listener: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	if o.ReloadInterval > 0 {
		g.Go(func() error {
			store.Watch(ctx, o.ReloadInterval, load)
			return nil
		})
	}

	if sl != nil {
		log.Infof("support listener on %v", sl.Addr())
		srv := supportServer(o, m)
		g.Go(func() error { return serve(ctx, srv, sl, o.ShutdownTimeout) })
	}

	tracer := o.OpenTracer
	if tracer == nil {
		tracer = ot.GlobalTracer()
	}

	p := proxy.New(proxy.Options{
		Store:     store,
		Executor:  mutation.NewExecutor(mutation.Options{Log: lg, Metrics: m}),
		Log:       lg,
		Transport: o.transport(),
		OpenTracing: &proxy.OpenTracingParams{
			Tracer:      tracer,
			InitialSpan: o.OpenTracingInitialSpan,
			ExcludeTags: o.OpenTracingExcludedProxyTags,
		},
	})

	srv := &http.Server{
		Handler:           p,
		ReadTimeout:       o.ReadTimeoutServer,
		ReadHeaderTimeout: o.ReadHeaderTimeoutServer,
		WriteTimeout:      o.WriteTimeoutServer,
		IdleTimeout:       o.IdleTimeoutServer,
		MaxHeaderBytes:    o.MaxHeaderBytes,
	}

	log.Infof("proxy listener on %v", l.Addr())
	if o.Ready != nil {
		o.Ready(l.Addr())
	}

	g.Go(func() error { return serve(ctx, srv, l, o.ShutdownTimeout) })
	return g.Wait()
}

// Run starts the proxy and blocks until it fails.
func Run(o Options) error {
	return RunWithContext(context.Background(), o)
}

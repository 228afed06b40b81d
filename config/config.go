package config

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/zalando/scopedheaders"
	"github.com/zalando/scopedheaders/proxy"
)

type Config struct {
	ConfigFile string
	Flags      *flag.FlagSet

	// generic:
	Address         string `yaml:"address"`
	SupportListener string `yaml:"support-listener"`
	PrintVersion    bool   `yaml:"version"`

	// configuration sources:
	RoutesFile     string        `yaml:"routes-file"`
	EndpointsFile  string        `yaml:"endpoints-file"`
	ReloadInterval time.Duration `yaml:"reload-interval"`

	// logging:
	ApplicationLog            string    `yaml:"application-log"`
	ApplicationLogLevel       log.Level `yaml:"-"`
	ApplicationLogLevelString string    `yaml:"application-log-level"`
	ApplicationLogPrefix      string    `yaml:"application-log-prefix"`
	ApplicationLogJSONEnabled bool      `yaml:"application-log-json-enabled"`

	// metrics:
	MetricsPrefix                string    `yaml:"metrics-prefix"`
	EnableRuntimeMetrics         bool      `yaml:"runtime-metrics"`
	HistogramMetricBucketsString string    `yaml:"histogram-metric-buckets"`
	HistogramMetricBuckets       []float64 `yaml:"-"`

	// tracing:
	OpenTracingInitialSpan       string    `yaml:"opentracing-initial-span"`
	OpenTracingExcludedProxyTags *listFlag `yaml:"opentracing-excluded-proxy-tags"`

	// connections, timeouts:
	ReadTimeoutServer            time.Duration `yaml:"read-timeout-server"`
	ReadHeaderTimeoutServer      time.Duration `yaml:"read-header-timeout-server"`
	WriteTimeoutServer           time.Duration `yaml:"write-timeout-server"`
	IdleTimeoutServer            time.Duration `yaml:"idle-timeout-server"`
	MaxHeaderBytes               int           `yaml:"max-header-bytes"`
	TimeoutBackend               time.Duration `yaml:"timeout-backend"`
	KeepaliveBackend             time.Duration `yaml:"keepalive-backend"`
	ResponseHeaderTimeoutBackend time.Duration `yaml:"response-header-timeout-backend"`
	MaxIdleConnsBackend          int           `yaml:"max-idle-connection-backend"`
	ShutdownTimeout              time.Duration `yaml:"shutdown-timeout"`
}

const (
	defaultAddress              = ":9090"
	defaultSupportListener      = ":9911"
	defaultApplicationLogPrefix = "[APP]"
	defaultApplicationLogLevel  = "INFO"
	defaultMetricsPrefix        = "scopedheaders"
	defaultShutdownTimeout      = 10 * time.Second
)

func NewConfig() *Config {
	cfg := new(Config)
	cfg.OpenTracingExcludedProxyTags = commaListFlag(
		proxy.HTTPHostTag,
		proxy.HTTPMethodTag,
		proxy.HTTPPathTag,
		proxy.UpstreamTag,
		proxy.VirtualHostTag,
		proxy.RouteTag,
		proxy.RequestEntriesTag,
		proxy.ResponseEntriesTag,
		proxy.FormatErrorsTag,
	)

	flag := flag.NewFlagSet("", flag.ExitOnError)

	flag.StringVar(&cfg.ConfigFile, "config-file", "", "if provided the flags will be loaded/overwritten by the values on the file (yaml)")

	// generic:
	flag.StringVar(&cfg.Address, "address", defaultAddress, "network address that the proxy should listen on")
	flag.StringVar(&cfg.SupportListener, "support-listener", defaultSupportListener, "network address used for exposing the /metrics endpoint. An empty value disables support endpoint.")
	flag.BoolVar(&cfg.PrintVersion, "version", false, "print version")

	// configuration sources:
	flag.StringVar(&cfg.RoutesFile, "routes-file", "", "file containing an Envoy v3 RouteConfiguration, in YAML or JSON")
	flag.StringVar(&cfg.EndpointsFile, "endpoints-file", "", "file containing one or a list of Envoy v3 ClusterLoadAssignments, in YAML or JSON")
	flag.DurationVar(&cfg.ReloadInterval, "reload-interval", 0, "interval of reloading the routes and endpoints files. The files are loaded only once when not set.")

	// logging:
	flag.StringVar(&cfg.ApplicationLog, "application-log", "", "output file for the application log. When not set, /dev/stderr is used")
	flag.StringVar(&cfg.ApplicationLogLevelString, "application-log-level", defaultApplicationLogLevel, "log level for application logs, possible values: PANIC, FATAL, ERROR, WARN, INFO, DEBUG")
	flag.StringVar(&cfg.ApplicationLogPrefix, "application-log-prefix", defaultApplicationLogPrefix, "prefix for each log entry")
	flag.BoolVar(&cfg.ApplicationLogJSONEnabled, "application-log-json-enabled", false, "when this flag is set, log in JSON format is used")

	// metrics:
	flag.StringVar(&cfg.MetricsPrefix, "metrics-prefix", defaultMetricsPrefix, "allows setting a custom prefix for the metric names")
	flag.BoolVar(&cfg.EnableRuntimeMetrics, "runtime-metrics", true, "enables reporting of the Go runtime and process statistics")
	flag.StringVar(&cfg.HistogramMetricBucketsString, "histogram-metric-buckets", "", "use custom buckets for prometheus histograms, must be a comma-separated list of numbers")

	// tracing:
	flag.StringVar(&cfg.OpenTracingInitialSpan, "opentracing-initial-span", "ingress", "set the name of the initial, pre-routing, tracing span")
	flag.Var(cfg.OpenTracingExcludedProxyTags, "opentracing-excluded-proxy-tags", "set tags that should be excluded from spans created for proxy operation. must be a comma-separated list of strings.")

	// connections, timeouts:
	flag.DurationVar(&cfg.ReadTimeoutServer, "read-timeout-server", 5*time.Minute, "set ReadTimeout for http server connections")
	flag.DurationVar(&cfg.ReadHeaderTimeoutServer, "read-header-timeout-server", 60*time.Second, "set ReadHeaderTimeout for http server connections")
	flag.DurationVar(&cfg.WriteTimeoutServer, "write-timeout-server", 60*time.Second, "set WriteTimeout for http server connections")
	flag.DurationVar(&cfg.IdleTimeoutServer, "idle-timeout-server", 60*time.Second, "set IdleTimeout for http server connections")
	flag.IntVar(&cfg.MaxHeaderBytes, "max-header-bytes", http.DefaultMaxHeaderBytes, "set MaxHeaderBytes for http server connections")
	flag.DurationVar(&cfg.TimeoutBackend, "timeout-backend", 60*time.Second, "sets the TCP client connection timeout for backend connections")
	flag.DurationVar(&cfg.KeepaliveBackend, "keepalive-backend", 30*time.Second, "sets the keepalive for backend connections")
	flag.DurationVar(&cfg.ResponseHeaderTimeoutBackend, "response-header-timeout-backend", 60*time.Second, "sets the HTTP response header timeout for backend connections")
	flag.IntVar(&cfg.MaxIdleConnsBackend, "max-idle-connection-backend", 0, "sets the maximum idle connections for all backend connections")
	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", defaultShutdownTimeout, "time to wait for the open connections to finish on shutdown")

	cfg.Flags = flag
	return cfg
}

func validate(c *Config) error {
	_, err := log.ParseLevel(c.ApplicationLogLevelString)
	if err != nil {
		return err
	}

	if c.RoutesFile == "" {
		return fmt.Errorf("missing routes file")
	}

	if c.ReloadInterval < 0 {
		return fmt.Errorf("invalid reload interval: %v", c.ReloadInterval)
	}

	_, err = c.parseHistogramBuckets(c.HistogramMetricBucketsString, prometheus.DefBuckets)
	return err
}

func (c *Config) Parse() error {
	return c.ParseArgs(os.Args[0], os.Args[1:])
}

func (c *Config) ParseArgs(progname string, args []string) error {
	c.Flags.Init(progname, flag.ExitOnError)
	err := c.Flags.Parse(args)
	if err != nil {
		return err
	}

	// check if arguments were correctly parsed.
	if len(c.Flags.Args()) != 0 {
		return fmt.Errorf("invalid arguments: %s", c.Flags.Args())
	}

	if c.ConfigFile != "" {
		yamlFile, err := os.ReadFile(c.ConfigFile)
		if err != nil {
			return fmt.Errorf("invalid config file: %w", err)
		}

		err = yaml.Unmarshal(yamlFile, c)
		if err != nil {
			return fmt.Errorf("unmarshalling config file error: %w", err)
		}

		// flags override the values of the config file
		err = c.Flags.Parse(args)
		if err != nil {
			return err
		}
	}

	if c.PrintVersion {
		return nil
	}

	if err := validate(c); err != nil {
		return err
	}

	c.ApplicationLogLevel, _ = log.ParseLevel(c.ApplicationLogLevelString)
	c.HistogramMetricBuckets, _ = c.parseHistogramBuckets(c.HistogramMetricBucketsString, prometheus.DefBuckets)
	return nil
}

func (c *Config) ToOptions() scopedheaders.Options {
	return scopedheaders.Options{
		Address:         c.Address,
		SupportListener: c.SupportListener,

		RoutesFile:     c.RoutesFile,
		EndpointsFile:  c.EndpointsFile,
		ReloadInterval: c.ReloadInterval,

		ApplicationLogOutput:      c.ApplicationLog,
		ApplicationLogLevel:       c.ApplicationLogLevel,
		ApplicationLogPrefix:      c.ApplicationLogPrefix,
		ApplicationLogJSONEnabled: c.ApplicationLogJSONEnabled,

		MetricsPrefix:          c.MetricsPrefix,
		EnableRuntimeMetrics:   c.EnableRuntimeMetrics,
		HistogramMetricBuckets: c.HistogramMetricBuckets,

		OpenTracingInitialSpan:       c.OpenTracingInitialSpan,
		OpenTracingExcludedProxyTags: c.OpenTracingExcludedProxyTags.values,

		ReadTimeoutServer:            c.ReadTimeoutServer,
		ReadHeaderTimeoutServer:      c.ReadHeaderTimeoutServer,
		WriteTimeoutServer:           c.WriteTimeoutServer,
		IdleTimeoutServer:            c.IdleTimeoutServer,
		MaxHeaderBytes:               c.MaxHeaderBytes,
		TimeoutBackend:               c.TimeoutBackend,
		KeepaliveBackend:             c.KeepaliveBackend,
		ResponseHeaderTimeoutBackend: c.ResponseHeaderTimeoutBackend,
		MaxIdleConnsBackend:          c.MaxIdleConnsBackend,
		ShutdownTimeout:              c.ShutdownTimeout,
	}
}

func (c *Config) parseHistogramBuckets(bucketString string, defaultBuckets []float64) ([]float64, error) {
	if bucketString == "" {
		return defaultBuckets, nil
	}

	var result []float64
	thresholds := strings.Split(bucketString, ",")
	for _, v := range thresholds {
		bucket, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("unable to parse histogram-metric-buckets: %w", err)
		}
		result = append(result, bucket)
	}
	sort.Float64s(result)
	return result, nil
}

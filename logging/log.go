package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

type prefixFormatter struct {
	prefix    string
	formatter logrus.Formatter
}

// Init options for logging.
type Options struct {

	// Prefix for application log entries.
	ApplicationLogPrefix string

	// Output for the application log entries, when nil,
	// os.Stderr is used.
	ApplicationLogOutput io.Writer

	// Minimum level of the application log entries, e.g. INFO or
	// debug. Defaults to INFO.
	ApplicationLogLevel string

	// When set, log in JSON format is used
	ApplicationLogJSONEnabled bool
}

func (f *prefixFormatter) Format(e *logrus.Entry) ([]byte, error) {
	b, err := f.formatter.Format(e)
	if err != nil {
		return nil, err
	}

	return append([]byte(f.prefix), b...), nil
}

func initApplicationLog(o Options) error {
	level := logrus.InfoLevel
	if o.ApplicationLogLevel != "" {
		var err error
		level, err = logrus.ParseLevel(o.ApplicationLogLevel)
		if err != nil {
			return fmt.Errorf("invalid application log level: %w", err)
		}
	}

	logrus.SetLevel(level)

	var formatter logrus.Formatter = &logrus.TextFormatter{}
	if o.ApplicationLogJSONEnabled {
		formatter = &logrus.JSONFormatter{}
	}

	if o.ApplicationLogPrefix != "" {
		formatter = &prefixFormatter{o.ApplicationLogPrefix, formatter}
	}

	logrus.SetFormatter(formatter)
	if o.ApplicationLogOutput != nil {
		logrus.SetOutput(o.ApplicationLogOutput)
	}

	return nil
}

// Init initializes the application log. It configures the standard
// logrus logger, used both by the package level log calls and by the
// loggers returned by New.
func Init(o Options) error {
	return initApplicationLog(o)
}

package mutation

import (
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyName = errors.New("empty header name")

// ConfigError reports a header mutation that cannot be built. It is
// fatal to the configuration unit that contains it.
type ConfigError struct {

	// Scope optionally names where the mutation was configured,
	// e.g. virtual_host:backend.
	Scope string

	// Header is the affected header name, when known.
	Header string

	Err error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("invalid header mutation")
	if e.Scope != "" {
		fmt.Fprintf(&b, " in %s", e.Scope)
	}

	if e.Header != "" {
		fmt.Fprintf(&b, " for header %q", e.Header)
	}

	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// InScope returns err as a *ConfigError that names scope. If err is
// already a *ConfigError with a scope, it is returned unchanged.
func InScope(scope string, err error) error {
	if err == nil {
		return nil
	}

	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		return &ConfigError{Scope: scope, Err: err}
	}

	if cerr.Scope != "" {
		return err
	}

	scoped := *cerr
	scoped.Scope = scope
	return &scoped
}

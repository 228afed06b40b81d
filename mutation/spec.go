/*
Package mutation implements hierarchical header mutations.

A Spec describes what one configuration scope does to a header set: an
ordered list of additions and a set of header names to remove. The
specs of the matched route, its virtual host and the route
configuration form a Chain, which is applied most specific first:

	route -> virtual host -> route configuration

Within a scope, removals are applied before additions. An addition
either appends a value next to the existing values of the header, or
replaces all of them. Since the less specific scopes are applied later,
a replacing addition of the route configuration overrides the values
set by the virtual host and the route, while appended values of all
scopes are kept in chain order.

Specs are immutable and can be shared between concurrent requests.
Chains are built per request.
*/
package mutation

import (
	"strings"

	"github.com/zalando/scopedheaders/formatter"
)

// Direction tells whether a mutation applies to requests, on their way
// upstream, or to responses, on their way downstream.
type Direction int

const (
	Request Direction = iota
	Response
)

func (d Direction) String() string {
	switch d {
	case Request:
		return "request"
	case Response:
		return "response"
	default:
		return "unknown"
	}
}

// Entry is a single header addition.
type Entry struct {

	// Name of the header, matched case-insensitively.
	Name string

	// Value is the compiled value template.
	Value *formatter.Template

	// Append keeps the existing values of the header. When false, the
	// entry replaces them.
	Append bool
}

// NewEntry creates an addition with a compiled value template.
func NewEntry(name, value string, appendValue bool) (Entry, error) {
	if strings.TrimSpace(name) == "" {
		return Entry{}, &ConfigError{Err: ErrEmptyName}
	}

	t, err := formatter.Compile(value)
	if err != nil {
		return Entry{}, &ConfigError{Header: name, Err: err}
	}

	return Entry{Name: name, Value: t, Append: appendValue}, nil
}

// MustEntry is like NewEntry but panics on error.
func MustEntry(name, value string, appendValue bool) Entry {
	e, err := NewEntry(name, value, appendValue)
	if err != nil {
		panic(err)
	}

	return e
}

// Spec holds the header mutations of one scope in one direction.
type Spec struct {
	additions []Entry
	removals  []string
}

// NewSpec creates a spec. The additions are kept in order, duplicate
// names included. Removals are a set: names differing only in case are
// kept once.
func NewSpec(additions []Entry, removals []string) (*Spec, error) {
	s := &Spec{}
	for _, e := range additions {
		if strings.TrimSpace(e.Name) == "" {
			return nil, &ConfigError{Err: ErrEmptyName}
		}

		if e.Value == nil {
			e.Value = formatter.Literal("")
		}

		s.additions = append(s.additions, e)
	}

	seen := make(map[string]bool)
	for _, name := range removals {
		if strings.TrimSpace(name) == "" {
			return nil, &ConfigError{Err: ErrEmptyName}
		}

		key := strings.ToLower(name)
		if seen[key] {
			continue
		}

		seen[key] = true
		s.removals = append(s.removals, name)
	}

	return s, nil
}

// Empty tells whether the spec changes nothing. A nil spec is empty.
func (s *Spec) Empty() bool {
	return s == nil || len(s.additions) == 0 && len(s.removals) == 0
}

// Additions returns a copy of the additions in declared order.
func (s *Spec) Additions() []Entry {
	if s == nil {
		return nil
	}

	return append([]Entry(nil), s.additions...)
}

// Removals returns a copy of the header names to remove.
func (s *Spec) Removals() []string {
	if s == nil {
		return nil
	}

	return append([]string(nil), s.removals...)
}

/*
Package formatter resolves header value templates.

A template is literal text that may embed dynamic tokens of the form
%NAME% or %NAME(ARGS)%. Tokens are compiled once, when the
configuration is loaded, and resolved per request against a Context:

	%UPSTREAM_METADATA(["envoy.lb", "version"])%

Only a closed set of tokens is supported. Compiling a template with an
unknown token fails, so misconfigured values are rejected before they
reach any request. Text that does not have the token syntax is kept as
it is, e.g. "100%", and %% renders a single percent sign.
*/
package formatter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrUnknownToken     = errors.New("unknown header value token")
	ErrInvalidArguments = errors.New("invalid header value token arguments")
	ErrNotScalar        = errors.New("value is not a scalar")
)

// FormatError is returned when a token is valid but its value cannot
// be rendered for the current request.
type FormatError struct {
	Token string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("failed to format %s: %v", e.Token, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

var tokenRegexp = regexp.MustCompile(`%%|%([A-Z][A-Z0-9_]*)(\((.*?)\))?%`)

type part struct {
	literal string
	token   *token
}

// Template is a compiled header value. It is immutable and safe for
// concurrent use.
type Template struct {
	raw     string
	parts   []part
	dynamic bool
}

// Compile parses a header value template.
func Compile(template string) (*Template, error) {
	t := &Template{raw: template}
	indices := tokenRegexp.FindAllStringSubmatchIndex(template, -1)
	if len(indices) == 0 {
		return t, nil
	}

	last := 0
	for _, loc := range indices {
		if loc[0] > last {
			t.parts = append(t.parts, part{literal: template[last:loc[0]]})
		}

		last = loc[1]
		if loc[2] < 0 {
			t.parts = append(t.parts, part{literal: "%"})
			continue
		}

		var args string
		hasArgs := loc[4] >= 0
		if hasArgs {
			args = template[loc[6]:loc[7]]
		}

		tk, err := parseToken(template[loc[0]:loc[1]], template[loc[2]:loc[3]], args, hasArgs)
		if err != nil {
			return nil, err
		}

		t.parts = append(t.parts, part{token: tk})
		t.dynamic = true
	}

	if last < len(template) {
		t.parts = append(t.parts, part{literal: template[last:]})
	}

	return t, nil
}

// MustCompile is like Compile but panics on invalid templates.
func MustCompile(template string) *Template {
	t, err := Compile(template)
	if err != nil {
		panic(err)
	}

	return t
}

// Literal returns a template that always renders s, without looking
// for tokens in it.
func Literal(s string) *Template {
	return &Template{raw: s}
}

// Dynamic tells whether the template contains tokens.
func (t *Template) Dynamic() bool { return t.dynamic }

func (t *Template) String() string { return t.raw }

// Resolve renders the template. Tokens that find no value render as an
// empty string. The only error returned is *FormatError.
func (t *Template) Resolve(ctx *Context) (string, error) {
	if len(t.parts) == 0 {
		return t.raw, nil
	}

	var b strings.Builder
	b.Grow(len(t.raw))
	for _, p := range t.parts {
		if p.token == nil {
			b.WriteString(p.literal)
			continue
		}

		v, err := p.token.resolve(ctx)
		if err != nil {
			return "", &FormatError{Token: p.token.raw, Err: err}
		}

		b.WriteString(v)
	}

	return b.String(), nil
}

// Resolve compiles and renders template in one step.
func Resolve(template string, ctx *Context) (string, error) {
	t, err := Compile(template)
	if err != nil {
		return "", err
	}

	return t.Resolve(ctx)
}

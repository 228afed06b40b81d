package mutation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalando/scopedheaders/formatter"
	"github.com/zalando/scopedheaders/mutation"
)

func TestNewEntry(t *testing.T) {
	e, err := mutation.NewEntry("x-zone", `%UPSTREAM_METADATA(["envoy.lb","zone"])%`, true)
	require.NoError(t, err)
	assert.Equal(t, "x-zone", e.Name)
	assert.True(t, e.Append)
	assert.True(t, e.Value.Dynamic())

	_, err = mutation.NewEntry(" ", "value", true)
	assert.ErrorIs(t, err, mutation.ErrEmptyName)

	_, err = mutation.NewEntry("x-unknown", "%HOSTNAME%", false)
	var cerr *mutation.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "x-unknown", cerr.Header)
	assert.ErrorIs(t, err, formatter.ErrUnknownToken)

	assert.Panics(t, func() { mutation.MustEntry("", "value", true) })
}

func TestNewSpec(t *testing.T) {
	s, err := mutation.NewSpec(
		[]mutation.Entry{{Name: "x-literal"}, mutation.MustEntry("x-b", "b", false)},
		[]string{"x-remove", "X-Remove", "x-other"},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"x-remove", "x-other"}, s.Removals())

	additions := s.Additions()
	require.Len(t, additions, 2)
	assert.Equal(t, "", additions[0].Value.String())
	assert.False(t, additions[1].Append)

	additions[0].Name = "changed"
	assert.Equal(t, "x-literal", s.Additions()[0].Name)

	_, err = mutation.NewSpec(nil, []string{""})
	assert.ErrorIs(t, err, mutation.ErrEmptyName)

	_, err = mutation.NewSpec([]mutation.Entry{{Value: formatter.Literal("v")}}, nil)
	assert.ErrorIs(t, err, mutation.ErrEmptyName)
}

func TestNilSpec(t *testing.T) {
	var s *mutation.Spec
	assert.True(t, s.Empty())
	assert.Nil(t, s.Additions())
	assert.Nil(t, s.Removals())
}

func TestBuilder(t *testing.T) {
	s, err := mutation.NewBuilder().
		Remove("x-internal").
		Append("x-route", "route").
		Replace("x-zone", `%UPSTREAM_METADATA(["envoy.lb","zone"])%`).
		Build()
	require.NoError(t, err)
	assert.Len(t, s.Additions(), 2)
	assert.Equal(t, []string{"x-internal"}, s.Removals())

	_, err = mutation.NewBuilder().
		Append("x-bad", "%UNKNOWN%").
		Append("", "never checked").
		Build()
	assert.ErrorIs(t, err, formatter.ErrUnknownToken)

	assert.Panics(t, func() { mutation.NewBuilder().Remove("").MustBuild() })
}

func TestConfigError(t *testing.T) {
	err := error(&mutation.ConfigError{Header: "x-a", Err: formatter.ErrUnknownToken})
	assert.Equal(t, `invalid header mutation for header "x-a": unknown header value token`, err.Error())

	scoped := mutation.InScope("virtual_host:backend", err)
	assert.Equal(t, `invalid header mutation in virtual_host:backend for header "x-a": unknown header value token`, scoped.Error())
	assert.ErrorIs(t, scoped, formatter.ErrUnknownToken)

	assert.Same(t, scoped, mutation.InScope("route:other", scoped))

	plain := mutation.InScope("route_config", errors.New("unsupported append action"))
	assert.Equal(t, "invalid header mutation in route_config: unsupported append action", plain.Error())

	assert.NoError(t, mutation.InScope("route_config", nil))
}

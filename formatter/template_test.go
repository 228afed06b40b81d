package formatter_test

import (
	"errors"
	"testing"

	corev3 "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/zalando/scopedheaders/formatter"
)

func testContext(t *testing.T) *formatter.Context {
	t.Helper()

	md, err := formatter.NewMetadata(map[string]map[string]interface{}{
		"test.namespace": {
			"key":    "metadata-value",
			"weight": 12.5,
			"canary": true,
			"none":   nil,
			"list":   []interface{}{"a", "b"},
			"nested": map[string]interface{}{
				"zone": "eu-central-1a",
				"deep": map[string]interface{}{"rack": 7},
			},
		},
	})
	require.NoError(t, err)

	return &formatter.Context{
		Upstream:                md,
		DownstreamRemoteAddress: "10.0.0.1:34567",
		Protocol:                "HTTP/1.1",
	}
}

func TestResolve(t *testing.T) {
	ctx := testContext(t)

	for _, tc := range []struct {
		title    string
		template string
		expected string
	}{{
		title:    "literal",
		template: "vhost",
		expected: "vhost",
	}, {
		title:    "empty",
		template: "",
		expected: "",
	}, {
		title:    "literal with percent signs",
		template: "100% of 50%",
		expected: "100% of 50%",
	}, {
		title:    "escaped percent sign",
		template: "100%%",
		expected: "100%",
	}, {
		title:    "escaped percent sign before a token",
		template: "%%%PROTOCOL%",
		expected: "%HTTP/1.1",
	}, {
		title:    "lower case is not a token",
		template: "%upstream_metadata%",
		expected: "%upstream_metadata%",
	}, {
		title:    "upstream metadata",
		template: `%UPSTREAM_METADATA(["test.namespace","key"])%`,
		expected: "metadata-value",
	}, {
		title:    "upstream metadata with spaces in the arguments",
		template: `%UPSTREAM_METADATA(["test.namespace", "key"])%`,
		expected: "metadata-value",
	}, {
		title:    "number",
		template: `%UPSTREAM_METADATA(["test.namespace","weight"])%`,
		expected: "12.5",
	}, {
		title:    "bool",
		template: `%UPSTREAM_METADATA(["test.namespace","canary"])%`,
		expected: "true",
	}, {
		title:    "null",
		template: `%UPSTREAM_METADATA(["test.namespace","none"])%`,
		expected: "",
	}, {
		title:    "nested",
		template: `%UPSTREAM_METADATA(["test.namespace","nested","deep","rack"])%`,
		expected: "7",
	}, {
		title:    "missing key",
		template: `%UPSTREAM_METADATA(["test.namespace","missing"])%`,
		expected: "",
	}, {
		title:    "missing namespace",
		template: `%UPSTREAM_METADATA(["other.namespace","key"])%`,
		expected: "",
	}, {
		title:    "path through a scalar",
		template: `%UPSTREAM_METADATA(["test.namespace","key","sub"])%`,
		expected: "",
	}, {
		title:    "mixed literal and tokens",
		template: `zone=%UPSTREAM_METADATA(["test.namespace","nested","zone"])%;client=%DOWNSTREAM_REMOTE_ADDRESS_WITHOUT_PORT%`,
		expected: "zone=eu-central-1a;client=10.0.0.1",
	}, {
		title:    "protocol",
		template: "%PROTOCOL%",
		expected: "HTTP/1.1",
	}} {
		t.Run(tc.title, func(t *testing.T) {
			v, err := formatter.Resolve(tc.template, ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, v)
		})
	}
}

func TestResolveWithoutContext(t *testing.T) {
	for _, ctx := range []*formatter.Context{nil, {}} {
		v, err := formatter.Resolve(`%UPSTREAM_METADATA(["test.namespace","key"])%`, ctx)
		require.NoError(t, err)
		assert.Equal(t, "", v)

		v, err = formatter.Resolve("routeconfig", ctx)
		require.NoError(t, err)
		assert.Equal(t, "routeconfig", v)
	}
}

func TestDownstreamAddressWithoutPort(t *testing.T) {
	for _, tc := range []struct {
		address, expected string
	}{
		{"10.0.0.1:80", "10.0.0.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"10.0.0.2", "10.0.0.2"},
		{"", ""},
	} {
		v, err := formatter.Resolve("%DOWNSTREAM_REMOTE_ADDRESS_WITHOUT_PORT%", &formatter.Context{DownstreamRemoteAddress: tc.address})
		require.NoError(t, err)
		assert.Equal(t, tc.expected, v, tc.address)
	}
}

func TestCompileErrors(t *testing.T) {
	for _, tc := range []struct {
		template string
		expected error
	}{
		{"%UNKNOWN%", formatter.ErrUnknownToken},
		{`%HOSTNAME(["a"])%`, formatter.ErrUnknownToken},
		{"%UPSTREAM_METADATA%", formatter.ErrInvalidArguments},
		{`%UPSTREAM_METADATA(["only-namespace"])%`, formatter.ErrInvalidArguments},
		{`%UPSTREAM_METADATA(test.namespace:key)%`, formatter.ErrInvalidArguments},
		{`%UPSTREAM_METADATA({"ns":"key"})%`, formatter.ErrInvalidArguments},
		{`%UPSTREAM_METADATA(["ns", 1])%`, formatter.ErrInvalidArguments},
		{`%UPSTREAM_METADATA(["ns", ""])%`, formatter.ErrInvalidArguments},
		{`%PROTOCOL(["x"])%`, formatter.ErrInvalidArguments},
	} {
		t.Run(tc.template, func(t *testing.T) {
			_, err := formatter.Compile(tc.template)
			assert.ErrorIs(t, err, tc.expected)

			assert.Panics(t, func() { formatter.MustCompile(tc.template) })
		})
	}
}

func TestFormatError(t *testing.T) {
	ctx := testContext(t)

	for _, key := range []string{"list", "nested"} {
		_, err := formatter.Resolve(`%UPSTREAM_METADATA(["test.namespace","`+key+`"])%`, ctx)

		var ferr *formatter.FormatError
		require.True(t, errors.As(err, &ferr), key)
		assert.ErrorIs(t, err, formatter.ErrNotScalar)
		assert.Equal(t, `%UPSTREAM_METADATA(["test.namespace","`+key+`"])%`, ferr.Token)
	}
}

func TestTemplateIsIdempotent(t *testing.T) {
	ctx := testContext(t)
	tpl := formatter.MustCompile(`%UPSTREAM_METADATA(["test.namespace","key"])%`)
	assert.True(t, tpl.Dynamic())

	first, err := tpl.Resolve(ctx)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		v, err := tpl.Resolve(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, v)
	}
}

func TestEscapeIsNotDynamic(t *testing.T) {
	tpl := formatter.MustCompile("50%%")
	assert.False(t, tpl.Dynamic())

	v, err := tpl.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "50%", v)
}

func TestLiteral(t *testing.T) {
	tpl := formatter.Literal("%PROTOCOL%")
	assert.False(t, tpl.Dynamic())

	v, err := tpl.Resolve(&formatter.Context{Protocol: "HTTP/2.0"})
	require.NoError(t, err)
	assert.Equal(t, "%PROTOCOL%", v)
	assert.Equal(t, "%PROTOCOL%", tpl.String())
}

func TestMetadataFromEnvoy(t *testing.T) {
	assert.Nil(t, formatter.MetadataFromEnvoy(nil))

	s, err := structpb.NewStruct(map[string]interface{}{"key": "metadata-value"})
	require.NoError(t, err)

	md := formatter.MetadataFromEnvoy(&corev3.Metadata{
		FilterMetadata: map[string]*structpb.Struct{"test.namespace": s},
	})

	v, ok := md.Lookup("test.namespace", "key")
	require.True(t, ok)
	assert.Equal(t, "metadata-value", v.GetStringValue())

	_, ok = md.Lookup("test.namespace", "other")
	assert.False(t, ok)
}

func TestWithUpstream(t *testing.T) {
	md := formatter.Metadata{}

	var nilCtx *formatter.Context
	assert.Equal(t, &formatter.Context{Upstream: md}, nilCtx.WithUpstream(md))

	ctx := &formatter.Context{Protocol: "HTTP/1.1"}
	withUpstream := ctx.WithUpstream(md)
	assert.Nil(t, ctx.Upstream)
	assert.Equal(t, "HTTP/1.1", withUpstream.Protocol)
	assert.NotNil(t, withUpstream.Upstream)
}

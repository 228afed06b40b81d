package mutation_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalando/scopedheaders/formatter"
	"github.com/zalando/scopedheaders/headers"
	"github.com/zalando/scopedheaders/mutation"
)

func upstreamContext(t testing.TB) *formatter.Context {
	md, err := formatter.NewMetadata(map[string]map[string]interface{}{
		"test.namespace": {
			"key":  "metadata-value",
			"list": []interface{}{"a", "b"},
		},
	})
	require.NoError(t, err)

	return &formatter.Context{Upstream: md, DownstreamRemoteAddress: "10.0.0.1:4242", Protocol: "HTTP/1.1"}
}

func fields(kv ...string) []headers.Field {
	var f []headers.Field
	for i := 0; i < len(kv); i += 2 {
		f = append(f, headers.Field{Name: kv[i], Value: kv[i+1]})
	}

	return f
}

func TestApply(t *testing.T) {
	for _, tc := range []struct {
		title    string
		input    []headers.Field
		chain    mutation.Chain
		expected []headers.Field
		stats    mutation.Stats
	}{{
		title:    "empty chain",
		input:    fields("x-downstream", "downstream"),
		expected: fields("x-downstream", "downstream"),
	}, {
		title: "route append keeps the downstream value first",
		input: fields("x-route-request", "downstream"),
		chain: mutation.NewChain(
			mutation.NewBuilder().Append("x-route-request", "route").MustBuild(),
			nil,
			nil,
		),
		expected: fields("x-route-request", "downstream", "x-route-request", "route"),
		stats:    mutation.Stats{Added: 1},
	}, {
		title: "append order follows the scopes",
		chain: mutation.NewChain(
			mutation.NewBuilder().Append("x-all", "route").MustBuild(),
			mutation.NewBuilder().Append("x-all", "vhost").MustBuild(),
			mutation.NewBuilder().Append("x-all", "routeconfig").MustBuild(),
		),
		expected: fields("x-all", "route", "x-all", "vhost", "x-all", "routeconfig"),
		stats:    mutation.Stats{Added: 3},
	}, {
		title: "less specific replace wins",
		input: fields("x-all", "downstream"),
		chain: mutation.NewChain(
			mutation.NewBuilder().Replace("x-all", "route").MustBuild(),
			mutation.NewBuilder().Replace("x-all", "vhost").MustBuild(),
			mutation.NewBuilder().Replace("x-all", "routeconfig").MustBuild(),
		),
		expected: fields("x-all", "routeconfig"),
		stats:    mutation.Stats{Added: 3},
	}, {
		title: "less specific append keeps the replaced value",
		input: fields("x-all", "downstream"),
		chain: mutation.NewChain(
			nil,
			mutation.NewBuilder().Replace("x-all", "vhost").MustBuild(),
			mutation.NewBuilder().Append("x-all", "routeconfig").MustBuild(),
		),
		expected: fields("x-all", "vhost", "x-all", "routeconfig"),
		stats:    mutation.Stats{Added: 2},
	}, {
		title: "replace at the route config scope regardless of the prior values",
		input: fields("x-routeconfig-request", "downstream", "x-routeconfig-request", "other"),
		chain: mutation.NewChain(
			mutation.NewBuilder().Append("x-route-request", "route").MustBuild(),
			mutation.NewBuilder().Append("x-vhost-request", "vhost").MustBuild(),
			mutation.NewBuilder().Replace("x-routeconfig-request", "routeconfig").MustBuild(),
		),
		expected: fields(
			"x-route-request", "route",
			"x-vhost-request", "vhost",
			"x-routeconfig-request", "routeconfig",
		),
		stats: mutation.Stats{Added: 3},
	}, {
		title: "removal",
		input: fields("x-routeconfig-response-remove", "upstream", "x-keep", "upstream"),
		chain: mutation.NewChain(
			nil,
			nil,
			mutation.NewBuilder().Remove("x-routeconfig-response-remove").MustBuild(),
		),
		expected: fields("x-keep", "upstream"),
		stats:    mutation.Stats{Removed: 1},
	}, {
		title: "removal is case-insensitive",
		input: fields("X-Remove", "a", "x-remove", "b"),
		chain: mutation.NewChain(
			mutation.NewBuilder().Remove("x-REMOVE").MustBuild(),
			nil,
			nil,
		),
		stats: mutation.Stats{Removed: 1},
	}, {
		title: "removal before addition in the same scope",
		input: fields("x-readd", "downstream"),
		chain: mutation.NewChain(
			mutation.NewBuilder().Append("x-readd", "route").Remove("x-readd").MustBuild(),
			nil,
			nil,
		),
		expected: fields("x-readd", "route"),
		stats:    mutation.Stats{Removed: 1, Added: 1},
	}, {
		title: "less specific scope removes what a more specific scope added",
		chain: mutation.NewChain(
			mutation.NewBuilder().Append("x-internal", "route").MustBuild(),
			mutation.NewBuilder().Remove("x-internal").MustBuild(),
			nil,
		),
		stats: mutation.Stats{Removed: 1, Added: 1},
	}, {
		title: "duplicate additions in one scope",
		chain: mutation.NewChain(
			mutation.NewBuilder().
				Append("x-dup", "a").
				Append("x-dup", "b").
				Replace("x-single", "a").
				Replace("x-single", "b").
				MustBuild(),
			nil,
			nil,
		),
		expected: fields("x-dup", "a", "x-dup", "b", "x-single", "b"),
		stats:    mutation.Stats{Added: 4},
	}, {
		title: "dynamic value",
		chain: mutation.NewChain(
			nil,
			mutation.NewBuilder().Append("x-vhost-dynamic", `%UPSTREAM_METADATA(["test.namespace","key"])%`).MustBuild(),
			nil,
		),
		expected: fields("x-vhost-dynamic", "metadata-value"),
		stats:    mutation.Stats{Added: 1},
	}, {
		title: "missing metadata renders an empty value",
		chain: mutation.NewChain(
			mutation.NewBuilder().Append("x-missing", `%UPSTREAM_METADATA(["test.namespace","missing"])%`).MustBuild(),
			nil,
			nil,
		),
		expected: fields("x-missing", ""),
		stats:    mutation.Stats{Added: 1},
	}, {
		title: "format error omits the entry only",
		chain: mutation.NewChain(
			mutation.NewBuilder().
				Append("x-list", `%UPSTREAM_METADATA(["test.namespace","list"])%`).
				Append("x-route", "route").
				MustBuild(),
			mutation.NewBuilder().Append("x-vhost", "vhost").MustBuild(),
			nil,
		),
		expected: fields("x-route", "route", "x-vhost", "vhost"),
		stats:    mutation.Stats{Added: 2, Failed: 1},
	}} {
		t.Run(tc.title, func(t *testing.T) {
			h := headers.NewList(tc.input...)
			st := mutation.Apply(tc.chain, h, upstreamContext(t))
			assert.Equal(t, tc.expected, h.Fields())
			assert.Equal(t, tc.stats, st)
		})
	}
}

func TestApplyHTTPHeader(t *testing.T) {
	h := make(map[string][]string)
	h["X-Route-Request"] = []string{"downstream"}

	c := mutation.NewChain(
		mutation.NewBuilder().Append("x-route-request", "route").MustBuild(),
		mutation.NewBuilder().Replace("X-VHOST-REQUEST", "vhost").MustBuild(),
		nil,
	)

	mutation.Apply(c, headers.HTTP(h), nil)
	assert.Equal(t, []string{"downstream", "route"}, h["X-Route-Request"])
	assert.Equal(t, []string{"vhost"}, h["X-Vhost-Request"])
}

func TestApplyDoesNotChangeTheSpecs(t *testing.T) {
	s := mutation.NewBuilder().Remove("x-a").Replace("x-b", "b").MustBuild()
	c := mutation.NewChain(s, s, s)

	for i := 0; i < 3; i++ {
		h := headers.NewList(headers.Field{Name: "x-a", Value: "a"})
		mutation.Apply(c, h, nil)
		assert.Equal(t, fields("x-b", "b"), h.Fields())
	}

	assert.Equal(t, []string{"x-a"}, s.Removals())
	require.Len(t, s.Additions(), 1)
	assert.Equal(t, "x-b", s.Additions()[0].Name)
}

func TestApplySharedChainConcurrently(t *testing.T) {
	ctx := upstreamContext(t)
	c := mutation.NewChain(
		mutation.NewBuilder().Append("x-route", "route").Remove("x-internal").MustBuild(),
		mutation.NewBuilder().Append("x-dynamic", `%UPSTREAM_METADATA(["test.namespace","key"])%`).MustBuild(),
		mutation.NewBuilder().Replace("x-routeconfig", "routeconfig").MustBuild(),
	)

	const workers = 8
	results := make([][]headers.Field, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h := headers.NewList(
					headers.Field{Name: "x-internal", Value: "secret"},
					headers.Field{Name: "x-routeconfig", Value: "downstream"},
				)

				mutation.Apply(c, h, ctx)
				results[i] = h.Fields()
			}
		}(i)
	}

	wg.Wait()
	for _, r := range results {
		assert.Equal(t, fields(
			"x-route", "route",
			"x-dynamic", "metadata-value",
			"x-routeconfig", "routeconfig",
		), r)
	}
}

func TestChainEmpty(t *testing.T) {
	assert.True(t, mutation.Chain{}.Empty())

	empty, err := mutation.NewSpec(nil, nil)
	require.NoError(t, err)
	assert.True(t, mutation.NewChain(empty, nil, empty).Empty())
	assert.False(t, mutation.NewChain(nil, nil, mutation.NewBuilder().Remove("x").MustBuild()).Empty())
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "route", mutation.RouteScope.String())
	assert.Equal(t, "virtual_host", mutation.VirtualHostScope.String())
	assert.Equal(t, "route_config", mutation.RouteConfigScope.String())
	assert.Equal(t, "request", mutation.Request.String())
	assert.Equal(t, "response", mutation.Response.String())
}

func BenchmarkApply(b *testing.B) {
	ctx := upstreamContext(b)
	c := mutation.NewChain(
		mutation.NewBuilder().Append("x-route", "route").Remove("x-internal").MustBuild(),
		mutation.NewBuilder().Append("x-vhost-dynamic", `%UPSTREAM_METADATA(["test.namespace","key"])%`).MustBuild(),
		mutation.NewBuilder().Replace("x-routeconfig", "routeconfig").MustBuild(),
	)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h := headers.NewList(
			headers.Field{Name: "x-internal", Value: "secret"},
			headers.Field{Name: "x-routeconfig", Value: "downstream"},
		)

		mutation.Apply(c, h, ctx)
	}
}

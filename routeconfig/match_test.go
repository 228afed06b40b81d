package routeconfig_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalando/scopedheaders/mutation"
	"github.com/zalando/scopedheaders/routeconfig"
)

func TestMatch(t *testing.T) {
	rc, err := routeconfig.FromEnvoy(parseTestRoutes(t))
	require.NoError(t, err)

	for _, tc := range []struct {
		host, path         string
		virtualHost, route string
		noMatch            bool
	}{
		{host: "no-headers.com", path: "/anything", virtualHost: "no-headers", route: "0"},
		{host: "NO-HEADERS.com:8080", path: "/", virtualHost: "no-headers", route: "0"},
		{host: "vhost-headers.com", path: "/vhost-only/sub", virtualHost: "vhost-headers", route: "0"},
		{host: "api.vhost-headers.com", path: "/vhost-and-route", virtualHost: "vhost-headers", route: "vhost-and-route"},
		{host: "vhost-headers.com", path: "/vhost-and-route/sub", noMatch: true},
		{host: "vhost-headers.com", path: "/other", noMatch: true},
		{host: "unknown.org", path: "/x", virtualHost: "default", route: "0"},
		{host: "[::1]:80", path: "/x", virtualHost: "default", route: "0"},
	} {
		t.Run(tc.host+tc.path, func(t *testing.T) {
			m, ok := rc.Match(tc.host, tc.path)
			if tc.noMatch {
				assert.False(t, ok)
				assert.Nil(t, m)
				return
			}

			require.True(t, ok)
			assert.Same(t, rc, m.Config)
			assert.Equal(t, tc.virtualHost, m.VirtualHost.Name)

			name := m.Route.Name
			if name == "" {
				for i, r := range m.VirtualHost.Routes {
					if r == m.Route {
						name = string(rune('0' + i))
					}
				}
			}

			assert.Equal(t, tc.route, name)
		})
	}
}

func TestMatchWildcardPrecedence(t *testing.T) {
	rc := &routeconfig.RouteConfiguration{VirtualHosts: []*routeconfig.VirtualHost{
		{Name: "any", Domains: []string{"*"}, Routes: []*routeconfig.Route{{Prefix: "/"}}},
		{Name: "prefix", Domains: []string{"api.*"}, Routes: []*routeconfig.Route{{Prefix: "/"}}},
		{Name: "short-suffix", Domains: []string{"*.com"}, Routes: []*routeconfig.Route{{Prefix: "/"}}},
		{Name: "long-suffix", Domains: []string{"*.example.com"}, Routes: []*routeconfig.Route{{Prefix: "/"}}},
		{Name: "exact", Domains: []string{"www.example.com"}, Routes: []*routeconfig.Route{{Prefix: "/"}}},
	}}

	for host, expected := range map[string]string{
		"www.example.com": "exact",
		"api.example.com": "long-suffix",
		"api.other.com":   "short-suffix",
		"api.local":       "prefix",
		"example.com":     "short-suffix",
		"localhost":       "any",
	} {
		m, ok := rc.Match(host, "/")
		require.True(t, ok, host)
		assert.Equal(t, expected, m.VirtualHost.Name, host)
	}

	var nilConfig *routeconfig.RouteConfiguration
	_, ok := nilConfig.Match("www.example.com", "/")
	assert.False(t, ok)
}

func TestBuild(t *testing.T) {
	route := mutation.NewBuilder().Append("x-route", "route").MustBuild()
	vhost := mutation.NewBuilder().Append("x-vhost", "vhost").MustBuild()
	config := mutation.NewBuilder().Remove("x-config").MustBuild()

	m := &routeconfig.Match{
		Config:      &routeconfig.RouteConfiguration{Headers: routeconfig.Headers{Response: config}},
		VirtualHost: &routeconfig.VirtualHost{Headers: routeconfig.Headers{Request: vhost}},
		Route:       &routeconfig.Route{Headers: routeconfig.Headers{Request: route, Response: route}},
	}

	assert.Equal(t, mutation.NewChain(route, vhost, nil), routeconfig.BuildMatch(m, mutation.Request))
	assert.Equal(t, mutation.NewChain(route, nil, config), m.Chain(mutation.Response))

	assert.Equal(t, mutation.Chain{}, routeconfig.Build(nil, nil, nil, mutation.Request))

	var nilRoute *routeconfig.Route
	assert.Equal(t, mutation.NewChain(nil, vhost, nil), routeconfig.Build(nilRoute, m.VirtualHost, nil, mutation.Request))

	var nilMatch *routeconfig.Match
	assert.True(t, nilMatch.Chain(mutation.Request).Empty())
}

/*
Package routeconfig holds the routing configuration that carries header
mutations at three scopes: the route configuration, its virtual hosts
and their routes.

A configuration is converted from Envoy xDS v3 resources with FromEnvoy
and EndpointsFromEnvoy, or loaded from files with LoadFile. The active
configuration is held by a Store as an immutable Snapshot, replaced
atomically on reload.

For a request, Match finds the virtual host and route, and the Match
provides the mutation chain of the route, the virtual host and the
route configuration, in this order, for either direction.
*/
package routeconfig

import (
	"github.com/zalando/scopedheaders/mutation"
)

// Source is a configuration scope carrying header mutations.
type Source interface {
	Mutations(mutation.Direction) *mutation.Spec
}

// Headers holds the mutations of a scope, one spec per direction.
type Headers struct {
	Request  *mutation.Spec
	Response *mutation.Spec
}

func (h Headers) spec(dir mutation.Direction) *mutation.Spec {
	if dir == mutation.Response {
		return h.Response
	}

	return h.Request
}

// Route is a route of a virtual host.
type Route struct {
	Name string

	// Prefix matches the beginning of the request path. Ignored when
	// Path is set.
	Prefix string

	// Path matches the whole request path.
	Path string

	// Cluster is the name of the upstream cluster.
	Cluster string

	Headers Headers
}

// VirtualHost groups routes under a set of domains.
type VirtualHost struct {
	Name string

	// Domains are matched against the host of the request. Supported
	// forms are exact names, *.suffix, prefix.* and the catch-all *.
	Domains []string

	Routes []*Route

	Headers Headers
}

// RouteConfiguration is the root of the routing configuration.
type RouteConfiguration struct {
	Name         string
	VirtualHosts []*VirtualHost
	Headers      Headers
}

// Mutations returns the spec of the direction. It can be called on a nil
// route.
func (r *Route) Mutations(dir mutation.Direction) *mutation.Spec {
	if r == nil {
		return nil
	}

	return r.Headers.spec(dir)
}

// Mutations returns the spec of the direction. It can be called on a nil
// virtual host.
func (vh *VirtualHost) Mutations(dir mutation.Direction) *mutation.Spec {
	if vh == nil {
		return nil
	}

	return vh.Headers.spec(dir)
}

// Mutations returns the spec of the direction. It can be called on a nil
// configuration.
func (rc *RouteConfiguration) Mutations(dir mutation.Direction) *mutation.Spec {
	if rc == nil {
		return nil
	}

	return rc.Headers.spec(dir)
}

// Build returns the chain of a matched route for a direction: the route
// first, then its virtual host, then the route configuration. Missing
// scopes result in empty specs.
func Build(route, virtualHost, routeConfig Source, dir mutation.Direction) mutation.Chain {
	return mutation.NewChain(
		specOf(route, dir),
		specOf(virtualHost, dir),
		specOf(routeConfig, dir),
	)
}

func specOf(s Source, dir mutation.Direction) *mutation.Spec {
	if s == nil {
		return nil
	}

	return s.Mutations(dir)
}

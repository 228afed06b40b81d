/*
Package proxy implements an HTTP reverse proxy that applies the header
mutations of the matched route, its virtual host and the route
configuration.

# Proxy Mechanism

1. route matching:

The incoming request is matched against the active configuration
snapshot, first the virtual host by the Host header, then the first
route of it matching the path. When no route matches, the proxy
responds with 404.

2. endpoint selection:

An endpoint of the route's cluster is picked in round robin. When the
cluster is unknown or has no endpoints, the proxy responds with 503.

3. request mutation:

The request chain is applied to the outgoing request headers. At this
point the dynamic values can see the downstream address and protocol,
but not the upstream host.

4. upstream request:

The request is forwarded to the endpoint. The Host header of the
incoming request is kept, and no X-Forwarded headers are added. When
the endpoint cannot be reached, the proxy responds with 502.

5. response mutation:

The response chain is applied to the upstream response headers, with
the metadata of the endpoint available to the %UPSTREAM_METADATA%
token.

# Tracing

When an OpenTracing tracer is configured, every request gets a server
span, joined to the incoming trace when the request carries one, and
tagged with the number of header values added in both directions.
*/
package proxy

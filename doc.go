/*
Package scopedheaders provides a reverse proxy applying hierarchical
header mutations, as configured in an Envoy v3 route configuration, to
the proxied requests and responses.

Header mutations can be defined on three scopes: the route
configuration, the virtual hosts and the routes. Each scope can remove
headers and add headers, either appending a value to the existing ones
or replacing them. For a matched route, the scopes are applied from the
most specific to the least specific one:

	route -> virtual host -> route configuration

so a replacing header of the route configuration wins over the values
set by the virtual host and the route.

Header values can contain dynamic tokens. They are resolved per request,
e.g. from the metadata of the selected upstream endpoint:

	response_headers_to_add:
	  - header:
	      key: x-upstream-zone
	      value: '%UPSTREAM_METADATA(["envoy.lb", "zone"])%'

# Quickstart

Create a route configuration and the endpoints of its clusters, in YAML
or JSON. routes.yaml:

	virtual_hosts:
	  - name: example
	    domains: ["*"]
	    response_headers_to_add:
	      - header: { key: x-served-by, value: scopedheaders }
	    routes:
	      - match: { prefix: "/" }
	        route: { cluster: backend }

endpoints.yaml:

	cluster_name: backend
	endpoints:
	  - lb_endpoints:
	      - endpoint:
	          address:
	            socket_address: { address: 127.0.0.1, port_value: 8080 }

Start the proxy:

	scopedheaders -routes-file routes.yaml -endpoints-file endpoints.yaml

With -reload-interval set, the files are reloaded periodically. An
invalid configuration is rejected, and the proxy keeps serving the
previous one.

# Packages

The header mutation engine lives in the mutation package, the value
templates in the formatter package, and the header containers it works
on in the headers package. The routeconfig package converts the Envoy
configuration and holds the active snapshot. The proxy package wires
them into an http.Handler.

Metrics are exposed in the Prometheus format on the /metrics endpoint of
the support listener.
*/
package scopedheaders

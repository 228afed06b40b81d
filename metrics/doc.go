/*
Package metrics implements the collection of header mutation metrics.

The collected metrics include the number of applied scopes, the number
of header values that could not be formatted and were omitted, the time
spent applying a mutation chain, and the result of the configuration
reloads.

Metrics are collected with the Prometheus client library, into a
dedicated registry. They can be exposed on an http.ServeMux with
RegisterHandler:

	m := metrics.NewPrometheus(metrics.Options{})
	mux := http.NewServeMux()
	m.RegisterHandler("/metrics", mux)

When metrics are not needed, Void can be used.
*/
package metrics

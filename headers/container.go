/*
Package headers provides the mutable header sets that the mutation
engine operates on.

A Container is multi-valued and matches names case-insensitively. The
package ships adapters for net/http headers, for gRPC metadata and an
ordered field list that keeps the exact sequence of a header block,
which is what the proxy sees on the wire.
*/
package headers

// Container is a mutable, multi-valued set of headers.
type Container interface {

	// Values returns the values of the header name in the order
	// they were added. Matching is case-insensitive.
	Values(name string) []string

	// Add appends a value to the header name, keeping all existing
	// values of the same name.
	Add(name, value string)

	// Del removes all values of the header name.
	Del(name string)
}

// Set replaces all values of name with a single value.
func Set(c Container, name, value string) {
	c.Del(name)
	c.Add(name, value)
}

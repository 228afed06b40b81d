package formatter

// Context holds the per request state that dynamic tokens are resolved
// against. A nil *Context is valid and resolves every token to an empty
// value.
type Context struct {

	// Upstream is the metadata of the upstream host selected for the
	// request. Nil until the host is known.
	Upstream Metadata

	// DownstreamRemoteAddress is the address of the client, with or
	// without a port.
	DownstreamRemoteAddress string

	// Protocol is the downstream protocol, e.g. HTTP/1.1.
	Protocol string
}

// WithUpstream returns a copy of the context carrying the metadata of
// the selected upstream host.
func (c *Context) WithUpstream(md Metadata) *Context {
	var cc Context
	if c != nil {
		cc = *c
	}

	cc.Upstream = md
	return &cc
}

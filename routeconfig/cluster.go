package routeconfig

import (
	"sync"

	"github.com/zalando/scopedheaders/formatter"
)

// Endpoint is an upstream host of a cluster.
type Endpoint struct {

	// Address in host:port form.
	Address string

	// Metadata of the host, resolved by the %UPSTREAM_METADATA% token
	// of the response headers.
	Metadata formatter.Metadata
}

// Cluster is a named group of endpoints. Endpoints are picked in round
// robin.
type Cluster struct {
	Name      string
	Endpoints []*Endpoint

	mx    sync.Mutex
	index int
}

// NewCluster creates a cluster.
func NewCluster(name string, endpoints ...*Endpoint) *Cluster {
	return &Cluster{Name: name, Endpoints: endpoints, index: -1}
}

// Pick returns the next endpoint. It returns false when the cluster has
// no endpoints. It can be called on a nil cluster.
func (c *Cluster) Pick() (*Endpoint, bool) {
	if c == nil || len(c.Endpoints) == 0 {
		return nil, false
	}

	if len(c.Endpoints) == 1 {
		return c.Endpoints[0], true
	}

	c.mx.Lock()
	defer c.mx.Unlock()
	c.index = (c.index + 1) % len(c.Endpoints)
	return c.Endpoints[c.index], true
}

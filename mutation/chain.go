package mutation

// Scope identifies one level of the configuration hierarchy.
type Scope int

// The scopes in application order, most specific first.
const (
	RouteScope Scope = iota
	VirtualHostScope
	RouteConfigScope
)

func (s Scope) String() string {
	switch s {
	case RouteScope:
		return "route"
	case VirtualHostScope:
		return "virtual_host"
	case RouteConfigScope:
		return "route_config"
	default:
		return "unknown"
	}
}

// Chain holds the specs of the three scopes, indexed by Scope. Nil
// entries are treated as empty specs.
type Chain [3]*Spec

// NewChain creates a chain from the specs of the matched route, its
// virtual host and the route configuration.
func NewChain(route, virtualHost, routeConfig *Spec) Chain {
	return Chain{route, virtualHost, routeConfig}
}

// Empty tells whether applying the chain would change nothing.
func (c Chain) Empty() bool {
	for _, s := range c {
		if !s.Empty() {
			return false
		}
	}

	return true
}

// Source provides the chain of a matched request for a direction.
type Source interface {
	Chain(Direction) Chain
}

package routeconfig

import (
	"net"
	"strings"

	"github.com/zalando/scopedheaders/mutation"
)

// Match is the result of routing a request.
type Match struct {
	Config      *RouteConfiguration
	VirtualHost *VirtualHost
	Route       *Route
}

// Chain implements mutation.Source. A nil match provides an empty chain.
func (m *Match) Chain(dir mutation.Direction) mutation.Chain {
	if m == nil {
		return mutation.Chain{}
	}

	return Build(m.Route, m.VirtualHost, m.Config, dir)
}

// BuildMatch returns the chain of a match for a direction.
func BuildMatch(m *Match, dir mutation.Direction) mutation.Chain {
	return m.Chain(dir)
}

// Match finds the virtual host by the request host and the first route
// of it matching the path. The port of the host is ignored.
func (rc *RouteConfiguration) Match(host, path string) (*Match, bool) {
	if rc == nil {
		return nil, false
	}

	vh := rc.findVirtualHost(normalizeHost(host))
	if vh == nil {
		return nil, false
	}

	for _, r := range vh.Routes {
		if r.matches(path) {
			return &Match{Config: rc, VirtualHost: vh, Route: r}, true
		}
	}

	return nil, false
}

func normalizeHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	return strings.ToLower(strings.TrimSuffix(host, "."))
}

// findVirtualHost selects, in this order: an exact domain, the longest
// matching suffix wildcard, the longest matching prefix wildcard, the
// catch-all.
func (rc *RouteConfiguration) findVirtualHost(host string) *VirtualHost {
	var (
		suffix, prefix, catchAll *VirtualHost
		suffixLen, prefixLen     int
	)

	for _, vh := range rc.VirtualHosts {
		for _, d := range vh.Domains {
			d = strings.ToLower(d)
			switch {
			case d == host:
				return vh
			case d == "*":
				if catchAll == nil {
					catchAll = vh
				}
			case strings.HasPrefix(d, "*"):
				if strings.HasSuffix(host, d[1:]) && len(host) > len(d)-1 && len(d) > suffixLen {
					suffix, suffixLen = vh, len(d)
				}
			case strings.HasSuffix(d, "*"):
				if strings.HasPrefix(host, d[:len(d)-1]) && len(host) > len(d)-1 && len(d) > prefixLen {
					prefix, prefixLen = vh, len(d)
				}
			}
		}
	}

	switch {
	case suffix != nil:
		return suffix
	case prefix != nil:
		return prefix
	default:
		return catchAll
	}
}

func (r *Route) matches(path string) bool {
	if r.Path != "" {
		return path == r.Path
	}

	return strings.HasPrefix(path, r.Prefix)
}

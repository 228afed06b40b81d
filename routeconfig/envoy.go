package routeconfig

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	corev3 "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	endpointv3 "github.com/envoyproxy/go-control-plane/envoy/config/endpoint/v3"
	routev3 "github.com/envoyproxy/go-control-plane/envoy/config/route/v3"

	"github.com/zalando/scopedheaders/formatter"
	"github.com/zalando/scopedheaders/mutation"
)

var (
	ErrUnsupportedAppendAction = errors.New("unsupported append action")
	ErrUnsupportedRouteMatch   = errors.New("unsupported route match")
	ErrUnsupportedAddress      = errors.New("unsupported endpoint address")
)

const routeConfigScope = "route_config"

// FromEnvoy converts an Envoy route configuration. Errors are returned
// as *mutation.ConfigError naming the scope of the invalid part.
func FromEnvoy(rc *routev3.RouteConfiguration) (*RouteConfiguration, error) {
	if err := rc.Validate(); err != nil {
		return nil, mutation.InScope(routeConfigScope, err)
	}

	h, err := headersFromEnvoy(rc)
	if err != nil {
		return nil, mutation.InScope(routeConfigScope, err)
	}

	c := &RouteConfiguration{Name: rc.GetName(), Headers: h}
	for _, evh := range rc.GetVirtualHosts() {
		vh, err := virtualHostFromEnvoy(evh)
		if err != nil {
			return nil, err
		}

		c.VirtualHosts = append(c.VirtualHosts, vh)
	}

	return c, nil
}

func virtualHostFromEnvoy(evh *routev3.VirtualHost) (*VirtualHost, error) {
	scope := "virtual_host:" + evh.GetName()
	h, err := headersFromEnvoy(evh)
	if err != nil {
		return nil, mutation.InScope(scope, err)
	}

	vh := &VirtualHost{
		Name:    evh.GetName(),
		Domains: append([]string(nil), evh.GetDomains()...),
		Headers: h,
	}

	for i, er := range evh.GetRoutes() {
		name := er.GetName()
		if name == "" {
			name = strconv.Itoa(i)
		}

		r, err := routeFromEnvoy(er)
		if err != nil {
			return nil, mutation.InScope(scope+"/route:"+name, err)
		}

		vh.Routes = append(vh.Routes, r)
	}

	return vh, nil
}

func routeFromEnvoy(er *routev3.Route) (*Route, error) {
	h, err := headersFromEnvoy(er)
	if err != nil {
		return nil, err
	}

	r := &Route{
		Name:    er.GetName(),
		Cluster: er.GetRoute().GetCluster(),
		Headers: h,
	}

	switch ps := er.GetMatch().GetPathSpecifier().(type) {
	case *routev3.RouteMatch_Prefix:
		r.Prefix = ps.Prefix
	case *routev3.RouteMatch_Path:
		r.Path = ps.Path
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedRouteMatch, ps)
	}

	return r, nil
}

// envoyHeaders is implemented by the route configuration, the virtual
// host and the route messages.
type envoyHeaders interface {
	GetRequestHeadersToAdd() []*corev3.HeaderValueOption
	GetRequestHeadersToRemove() []string
	GetResponseHeadersToAdd() []*corev3.HeaderValueOption
	GetResponseHeadersToRemove() []string
}

func headersFromEnvoy(m envoyHeaders) (Headers, error) {
	req, err := specFromEnvoy(m.GetRequestHeadersToAdd(), m.GetRequestHeadersToRemove())
	if err != nil {
		return Headers{}, err
	}

	rsp, err := specFromEnvoy(m.GetResponseHeadersToAdd(), m.GetResponseHeadersToRemove())
	if err != nil {
		return Headers{}, err
	}

	return Headers{Request: req, Response: rsp}, nil
}

func specFromEnvoy(add []*corev3.HeaderValueOption, remove []string) (*mutation.Spec, error) {
	if len(add) == 0 && len(remove) == 0 {
		return nil, nil
	}

	var entries []mutation.Entry
	for _, o := range add {
		h := o.GetHeader()
		appendValue, err := appendFromEnvoy(o)
		if err != nil {
			return nil, &mutation.ConfigError{Header: h.GetKey(), Err: err}
		}

		value := h.GetValue()
		if value == "" && len(h.GetRawValue()) > 0 {
			value = string(h.GetRawValue())
		}

		e, err := mutation.NewEntry(h.GetKey(), value, appendValue)
		if err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	return mutation.NewSpec(entries, remove)
}

// appendFromEnvoy returns the append policy of a header option. The
// deprecated append flag takes precedence when set.
func appendFromEnvoy(o *corev3.HeaderValueOption) (bool, error) {
	if a := o.GetAppend(); a != nil {
		return a.GetValue(), nil
	}

	switch action := o.GetAppendAction(); action {
	case corev3.HeaderValueOption_APPEND_IF_EXISTS_OR_ADD:
		return true, nil
	case corev3.HeaderValueOption_OVERWRITE_IF_EXISTS_OR_ADD:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedAppendAction, action)
	}
}

// EndpointsFromEnvoy converts an Envoy cluster load assignment into a
// cluster, keeping the filter metadata of the endpoints.
func EndpointsFromEnvoy(cla *endpointv3.ClusterLoadAssignment) (*Cluster, error) {
	if err := cla.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cluster load assignment: %w", err)
	}

	var endpoints []*Endpoint
	for _, locality := range cla.GetEndpoints() {
		for _, lb := range locality.GetLbEndpoints() {
			sa := lb.GetEndpoint().GetAddress().GetSocketAddress()
			if sa == nil {
				return nil, fmt.Errorf("%w in cluster %s", ErrUnsupportedAddress, cla.GetClusterName())
			}

			endpoints = append(endpoints, &Endpoint{
				Address:  net.JoinHostPort(sa.GetAddress(), strconv.FormatUint(uint64(sa.GetPortValue()), 10)),
				Metadata: formatter.MetadataFromEnvoy(lb.GetMetadata()),
			})
		}
	}

	return NewCluster(cla.GetClusterName(), endpoints...), nil
}

package formatter

import (
	"fmt"
	"net"
	"strconv"

	"github.com/tidwall/gjson"
	"google.golang.org/protobuf/types/known/structpb"
)

type tokenKind int

const (
	upstreamMetadata tokenKind = iota
	downstreamRemoteAddressWithoutPort
	protocol
)

const (
	UpstreamMetadataName                   = "UPSTREAM_METADATA"
	DownstreamRemoteAddressWithoutPortName = "DOWNSTREAM_REMOTE_ADDRESS_WITHOUT_PORT"
	ProtocolName                           = "PROTOCOL"
)

var tokenKinds = map[string]tokenKind{
	UpstreamMetadataName:                   upstreamMetadata,
	DownstreamRemoteAddressWithoutPortName: downstreamRemoteAddressWithoutPort,
	ProtocolName:                           protocol,
}

type token struct {
	kind tokenKind
	raw  string

	// UPSTREAM_METADATA only
	namespace string
	key       string
	path      []string
}

func parseToken(raw, name, args string, hasArgs bool) (*token, error) {
	kind, ok := tokenKinds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, name)
	}

	t := &token{kind: kind, raw: raw}
	switch kind {
	case upstreamMetadata:
		if !hasArgs {
			return nil, fmt.Errorf("%w: %s expects a namespace and a key", ErrInvalidArguments, name)
		}

		keys, err := parseStringArray(args)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, name, err)
		}

		if len(keys) < 2 {
			return nil, fmt.Errorf("%w: %s expects a namespace and a key", ErrInvalidArguments, name)
		}

		t.namespace, t.key, t.path = keys[0], keys[1], keys[2:]
	default:
		if hasArgs {
			return nil, fmt.Errorf("%w: %s takes no arguments", ErrInvalidArguments, name)
		}
	}

	return t, nil
}

// parseStringArray parses a JSON array of non-empty strings,
// e.g. ["envoy.lb", "canary"].
func parseStringArray(s string) ([]string, error) {
	if !gjson.Valid(s) {
		return nil, fmt.Errorf("invalid JSON: %s", s)
	}

	r := gjson.Parse(s)
	if !r.IsArray() {
		return nil, fmt.Errorf("not an array: %s", s)
	}

	var keys []string
	for _, e := range r.Array() {
		if e.Type != gjson.String || e.Str == "" {
			return nil, fmt.Errorf("not a non-empty string: %s", e.Raw)
		}

		keys = append(keys, e.Str)
	}

	return keys, nil
}

func (t *token) resolve(ctx *Context) (string, error) {
	if ctx == nil {
		return "", nil
	}

	switch t.kind {
	case upstreamMetadata:
		v, ok := ctx.Upstream.Lookup(t.namespace, t.key, t.path...)
		if !ok {
			return "", nil
		}

		return scalar(v)
	case downstreamRemoteAddressWithoutPort:
		host, _, err := net.SplitHostPort(ctx.DownstreamRemoteAddress)
		if err != nil {
			return ctx.DownstreamRemoteAddress, nil
		}

		return host, nil
	case protocol:
		return ctx.Protocol, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownToken, t.kind)
	}
}

func scalar(v *structpb.Value) (string, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64), nil
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue), nil
	case nil, *structpb.Value_NullValue:
		return "", nil
	default:
		return "", ErrNotScalar
	}
}

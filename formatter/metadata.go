package formatter

import (
	corev3 "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	"google.golang.org/protobuf/types/known/structpb"
)

// Metadata is the metadata of an upstream host, grouped by namespace,
// in the same shape as the filter metadata of an Envoy endpoint.
type Metadata map[string]*structpb.Struct

// MetadataFromEnvoy returns the filter metadata of an Envoy metadata
// message. The returned value shares the structs with the message.
func MetadataFromEnvoy(md *corev3.Metadata) Metadata {
	fm := md.GetFilterMetadata()
	if len(fm) == 0 {
		return nil
	}

	m := make(Metadata, len(fm))
	for ns, s := range fm {
		m[ns] = s
	}

	return m
}

// NewMetadata creates metadata from plain values. The values need to be
// convertible by structpb.NewValue.
func NewMetadata(namespaces map[string]map[string]interface{}) (Metadata, error) {
	m := make(Metadata, len(namespaces))
	for ns, fields := range namespaces {
		s, err := structpb.NewStruct(fields)
		if err != nil {
			return nil, err
		}

		m[ns] = s
	}

	return m, nil
}

// Lookup returns the value stored under key in namespace. Additional
// keys descend into struct values.
func (m Metadata) Lookup(namespace, key string, path ...string) (*structpb.Value, bool) {
	s := m[namespace]
	if s == nil {
		return nil, false
	}

	v, ok := s.GetFields()[key]
	for _, k := range path {
		if !ok {
			break
		}

		v, ok = v.GetStructValue().GetFields()[k]
	}

	return v, ok
}

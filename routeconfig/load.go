package routeconfig

import (
	"fmt"
	"os"

	endpointv3 "github.com/envoyproxy/go-control-plane/envoy/config/endpoint/v3"
	routev3 "github.com/envoyproxy/go-control-plane/envoy/config/route/v3"
	"github.com/tidwall/gjson"
	"google.golang.org/protobuf/encoding/protojson"
	"sigs.k8s.io/yaml"
)

// ParseRouteConfiguration parses an Envoy v3 route configuration
// document, in YAML or JSON.
func ParseRouteConfiguration(data []byte) (*routev3.RouteConfiguration, error) {
	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse route configuration: %w", err)
	}

	rc := &routev3.RouteConfiguration{}
	if err := protojson.Unmarshal(j, rc); err != nil {
		return nil, fmt.Errorf("failed to parse route configuration: %w", err)
	}

	return rc, nil
}

// ParseClusterLoadAssignments parses Envoy v3 cluster load assignments,
// in YAML or JSON. The document is either a single assignment or a list
// of them.
func ParseClusterLoadAssignments(data []byte) ([]*endpointv3.ClusterLoadAssignment, error) {
	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse endpoints: %w", err)
	}

	doc := gjson.ParseBytes(j)
	docs := []gjson.Result{doc}
	if doc.IsArray() {
		docs = doc.Array()
	}

	var assignments []*endpointv3.ClusterLoadAssignment
	for i, d := range docs {
		if d.Type == gjson.Null {
			continue
		}

		cla := &endpointv3.ClusterLoadAssignment{}
		if err := protojson.Unmarshal([]byte(d.Raw), cla); err != nil {
			return nil, fmt.Errorf("failed to parse endpoints, item %d: %w", i, err)
		}

		assignments = append(assignments, cla)
	}

	return assignments, nil
}

// Parse creates a snapshot from the documents of a route configuration
// and of the cluster load assignments. endpoints is optional.
func Parse(routes, endpoints []byte) (*Snapshot, error) {
	erc, err := ParseRouteConfiguration(routes)
	if err != nil {
		return nil, err
	}

	rc, err := FromEnvoy(erc)
	if err != nil {
		return nil, err
	}

	var clusters []*Cluster
	if len(endpoints) > 0 {
		assignments, err := ParseClusterLoadAssignments(endpoints)
		if err != nil {
			return nil, err
		}

		for _, cla := range assignments {
			c, err := EndpointsFromEnvoy(cla)
			if err != nil {
				return nil, err
			}

			clusters = append(clusters, c)
		}
	}

	return NewSnapshot(rc, clusters...), nil
}

// LoadFile reads a snapshot from a route configuration file and an
// optional endpoints file.
func LoadFile(routesFile, endpointsFile string) (*Snapshot, error) {
	routes, err := os.ReadFile(routesFile)
	if err != nil {
		return nil, err
	}

	var endpoints []byte
	if endpointsFile != "" {
		endpoints, err = os.ReadFile(endpointsFile)
		if err != nil {
			return nil, err
		}
	}

	return Parse(routes, endpoints)
}

// FileLoader returns a LoadFunc reading the files on every call.
func FileLoader(routesFile, endpointsFile string) LoadFunc {
	return func() (*Snapshot, error) {
		return LoadFile(routesFile, endpointsFile)
	}
}

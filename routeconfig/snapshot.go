package routeconfig

// Snapshot is an immutable state of the configuration.
type Snapshot struct {
	Config   *RouteConfiguration
	Clusters map[string]*Cluster
}

// NewSnapshot creates a snapshot indexing the clusters by name.
func NewSnapshot(rc *RouteConfiguration, clusters ...*Cluster) *Snapshot {
	s := &Snapshot{Config: rc, Clusters: make(map[string]*Cluster, len(clusters))}
	for _, c := range clusters {
		s.Clusters[c.Name] = c
	}

	return s
}

// Cluster returns the cluster by name, or nil.
func (s *Snapshot) Cluster(name string) *Cluster {
	if s == nil {
		return nil
	}

	return s.Clusters[name]
}

// Match routes a request with the configuration of the snapshot. It can
// be called on a nil snapshot, which matches nothing.
func (s *Snapshot) Match(host, path string) (*Match, bool) {
	if s == nil {
		return nil, false
	}

	return s.Config.Match(host, path)
}

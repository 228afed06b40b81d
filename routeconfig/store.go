package routeconfig

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/zalando/scopedheaders/logging"
	"github.com/zalando/scopedheaders/metrics"
)

var ErrNoSnapshot = errors.New("no configuration loaded")

// LoadFunc produces a new snapshot, e.g. by reading configuration files.
type LoadFunc func() (*Snapshot, error)

// StoreOptions of the store.
type StoreOptions struct {

	// Log defaults to logging.New().
	Log logging.Logger

	// Metrics defaults to metrics.Void.
	Metrics metrics.Metrics
}

// Store holds the active snapshot. Readers never block, and they see
// either the previous or the new snapshot, never a partial one.
type Store struct {
	current atomic.Pointer[Snapshot]
	log     logging.Logger
	metrics metrics.Metrics
}

// NewStore creates an empty store.
func NewStore(o StoreOptions) *Store {
	if o.Log == nil {
		o.Log = logging.New()
	}

	if o.Metrics == nil {
		o.Metrics = metrics.Void
	}

	return &Store{log: o.Log, metrics: o.Metrics}
}

// Get returns the active snapshot, or nil before the first load.
func (s *Store) Get() *Snapshot {
	return s.current.Load()
}

// Update replaces the active snapshot.
func (s *Store) Update(snapshot *Snapshot) {
	s.current.Store(snapshot)
}

// Load calls load and activates the snapshot it returns. On error, the
// previous snapshot stays active.
func (s *Store) Load(load LoadFunc) error {
	snapshot, err := load()
	if err == nil && snapshot == nil {
		err = ErrNoSnapshot
	}

	if err != nil {
		s.log.Errorf("failed to load configuration: %v", err)
		s.metrics.IncConfigReloads(false)
		return err
	}

	s.Update(snapshot)
	s.metrics.IncConfigReloads(true)
	s.log.Debugf("configuration loaded, virtual hosts: %d, clusters: %d",
		len(snapshot.Config.virtualHosts()), len(snapshot.Clusters))

	return nil
}

// Watch reloads the configuration in every interval, until the context
// is done. Failed reloads are logged and counted, and keep the previous
// snapshot.
func (s *Store) Watch(ctx context.Context, interval time.Duration, load LoadFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Load(load)
		case <-ctx.Done():
			return
		}
	}
}

func (rc *RouteConfiguration) virtualHosts() []*VirtualHost {
	if rc == nil {
		return nil
	}

	return rc.VirtualHosts
}

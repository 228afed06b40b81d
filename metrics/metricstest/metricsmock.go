// Package metricstest provides a metrics implementation recording the
// calls, for tests.
package metricstest

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/zalando/scopedheaders/metrics"
)

const (
	KeyMutations    = "mutation.%s.%s"
	KeyFormatErrors = "mutation.format_error.%s.%s"
	KeyApply        = "mutation.apply.%s"
	KeyReload       = "config.reload.%s"
)

type MockMetrics struct {
	mu sync.Mutex

	// Metrics gathering
	counters map[string]int64
	measures map[string][]time.Duration
	Now      time.Time
}

var _ metrics.Metrics = (*MockMetrics)(nil)

//
// Public thread safe access to metrics
//

func (m *MockMetrics) WithCounters(f func(counters map[string]int64)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	f(m.counters)
}

func (m *MockMetrics) WithMeasures(f func(measures map[string][]time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.measures == nil {
		m.measures = make(map[string][]time.Duration)
	}
	f(m.measures)
}

// Counter returns the current value of a counter.
func (m *MockMetrics) Counter(key string) (v int64) {
	m.WithCounters(func(counters map[string]int64) {
		v = counters[key]
	})

	return
}

// Measures returns how many times a duration was recorded with key.
func (m *MockMetrics) Measures(key string) (n int) {
	m.WithMeasures(func(measures map[string][]time.Duration) {
		n = len(measures[key])
	})

	return
}

//
// Interface Metrics
//

func (m *MockMetrics) inc(key string) {
	m.WithCounters(func(counters map[string]int64) {
		counters[key]++
	})
}

func (m *MockMetrics) IncMutations(direction, scope string) {
	m.inc(fmt.Sprintf(KeyMutations, direction, scope))
}

func (m *MockMetrics) IncFormatErrors(direction, header string) {
	m.inc(fmt.Sprintf(KeyFormatErrors, direction, header))
}

func (m *MockMetrics) MeasureApply(direction string, start time.Time) {
	now := m.Now
	if now.IsZero() {
		now = time.Now()
	}

	key := fmt.Sprintf(KeyApply, direction)
	m.WithMeasures(func(measures map[string][]time.Duration) {
		measures[key] = append(measures[key], now.Sub(start))
	})
}

func (m *MockMetrics) IncConfigReloads(success bool) {
	result := "failure"
	if success {
		result = "success"
	}

	m.inc(fmt.Sprintf(KeyReload, result))
}

func (*MockMetrics) RegisterHandler(path string, handler *http.ServeMux) {}

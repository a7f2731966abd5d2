// Package metrics records application metrics through the OpenTelemetry API
// and exposes them in the Prometheus text format.
package metrics

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	errMetricDoesNotExist = errors.New("metric is not registered")
	errMetricExists       = errors.New("metric already registered")
)

// Manager creates and records named instruments. Record calls on a name that
// was never registered are logged and dropped.
type Manager interface {
	NewCounter(name, desc string)
	NewHistogram(name, desc string, buckets ...float64)

	IncrementCounter(ctx context.Context, name string, labels ...string)
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
}

// Logger is what the manager reports misuse to.
type Logger interface {
	Errorf(format string, args ...any)
	Warnf(format string, args ...any)
}

type metricsManager struct {
	meter  metric.Meter
	store  *store
	logger Logger
}

type store struct {
	mu         sync.RWMutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// NewMetricsManager returns a Manager creating its instruments on meter.
func NewMetricsManager(meter metric.Meter, logger Logger) Manager {
	return &metricsManager{
		meter: meter,
		store: &store{
			counters:   make(map[string]metric.Int64Counter),
			histograms: make(map[string]metric.Float64Histogram),
		},
		logger: logger,
	}
}

func (m *metricsManager) NewCounter(name, desc string) {
	c, err := m.meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		m.logger.Errorf("error creating counter %s: %v", name, err)
		return
	}

	if err := m.store.setCounter(name, c); err != nil {
		m.logger.Warnf("counter %s: %v", name, err)
	}
}

func (m *metricsManager) NewHistogram(name, desc string, buckets ...float64) {
	h, err := m.meter.Float64Histogram(name, metric.WithDescription(desc),
		metric.WithExplicitBucketBoundaries(buckets...))
	if err != nil {
		m.logger.Errorf("error creating histogram %s: %v", name, err)
		return
	}

	if err := m.store.setHistogram(name, h); err != nil {
		m.logger.Warnf("histogram %s: %v", name, err)
	}
}

func (m *metricsManager) IncrementCounter(ctx context.Context, name string, labels ...string) {
	c, err := m.store.counter(name)
	if err != nil {
		m.logger.Errorf("counter %s: %v", name, err)
		return
	}

	c.Add(ctx, 1, metric.WithAttributes(m.attributes(name, labels)...))
}

func (m *metricsManager) RecordHistogram(ctx context.Context, name string, value float64, labels ...string) {
	h, err := m.store.histogram(name)
	if err != nil {
		m.logger.Errorf("histogram %s: %v", name, err)
		return
	}

	h.Record(ctx, value, metric.WithAttributes(m.attributes(name, labels)...))
}

// attributes pairs labels up as key, value. A trailing key without a value
// is dropped.
func (m *metricsManager) attributes(name string, labels []string) []attribute.KeyValue {
	if len(labels)%2 != 0 {
		m.logger.Warnf("metric %s: odd number of labels, dropping %q", name, labels[len(labels)-1])
	}

	attrs := make([]attribute.KeyValue, 0, len(labels)/2)

	for i := 0; i+1 < len(labels); i += 2 {
		attrs = append(attrs, attribute.String(labels[i], labels[i+1]))
	}

	return attrs
}

func (s *store) setCounter(name string, c metric.Int64Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.counters[name]; ok {
		return errMetricExists
	}

	s.counters[name] = c

	return nil
}

func (s *store) setHistogram(name string, h metric.Float64Histogram) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.histograms[name]; ok {
		return errMetricExists
	}

	s.histograms[name] = h

	return nil
}

func (s *store) counter(name string) (metric.Int64Counter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.counters[name]
	if !ok {
		return nil, errMetricDoesNotExist
	}

	return c, nil
}

func (s *store) histogram(name string) (metric.Float64Histogram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.histograms[name]
	if !ok {
		return nil, errMetricDoesNotExist
	}

	return h, nil
}

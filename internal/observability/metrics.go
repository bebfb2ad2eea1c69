// internal/observability/metrics.go
package observability

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/puzpuzpuz/xsync/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
)

const faultCounterName = "redislock_faults_total"

// FaultRecorder counts coordination faults such as acquire timeouts and
// release races. fault is a stable snake_case identifier, resource is the
// lock or semaphore name.
type FaultRecorder interface {
	RecordFault(ctx context.Context, fault string, resource string)
}

// NopRecorder drops every fault.
type NopRecorder struct{}

// RecordFault implements FaultRecorder.
func (NopRecorder) RecordFault(context.Context, string, string) {}

// OTelRecorder implements FaultRecorder using OpenTelemetry
type OTelRecorder struct {
	counter metric.Int64Counter
	logger  *SLogger
}

// NewOTelRecorder creates a fault recorder on the global meter provider.
func NewOTelRecorder(cfg Config, l *SLogger) (*OTelRecorder, error) {
	meter := otel.GetMeterProvider().Meter(
		cfg.ServiceName,
		metric.WithInstrumentationVersion(cfg.ServiceVersion),
	)

	counter, err := meter.Int64Counter(faultCounterName,
		metric.WithDescription("Coordination faults by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter metric '%s': %w", faultCounterName, err)
	}

	return &OTelRecorder{counter: counter, logger: l}, nil
}

// RecordFault implements FaultRecorder.
func (r *OTelRecorder) RecordFault(ctx context.Context, fault string, resource string) {
	r.counter.Add(ctx, 1, metric.WithAttributes(attributesFromTags([]string{"fault", fault, "resource", resource})...))
}

// PrometheusRecorder implements FaultRecorder with a labelled counter vector.
type PrometheusRecorder struct {
	faults *prometheus.CounterVec
}

// NewPrometheusRecorder registers the fault counter on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	faults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: faultCounterName,
		Help: "Total number of coordination faults by kind",
	}, []string{"fault"})
	if err := reg.Register(faults); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", faultCounterName, err)
	}
	return &PrometheusRecorder{faults: faults}, nil
}

// RecordFault implements FaultRecorder. The resource is not used as a label
// to keep cardinality bounded.
func (r *PrometheusRecorder) RecordFault(_ context.Context, fault string, _ string) {
	r.faults.WithLabelValues(fault).Inc()
}

// Counter exposes the underlying counter for a fault kind.
func (r *PrometheusRecorder) Counter(fault string) prometheus.Counter {
	return r.faults.WithLabelValues(fault)
}

// CountingRecorder keeps per-fault totals in process memory.
type CountingRecorder struct {
	counts *xsync.MapOf[string, *atomic.Int64]
}

// NewCountingRecorder returns an empty CountingRecorder.
func NewCountingRecorder() *CountingRecorder {
	return &CountingRecorder{counts: xsync.NewMapOf[string, *atomic.Int64]()}
}

// RecordFault implements FaultRecorder.
func (r *CountingRecorder) RecordFault(_ context.Context, fault string, _ string) {
	counter, _ := r.counts.LoadOrCompute(fault, func() *atomic.Int64 {
		return atomic.NewInt64(0)
	})
	counter.Inc()
}

// Count returns the total for a single fault kind.
func (r *CountingRecorder) Count(fault string) int64 {
	counter, ok := r.counts.Load(fault)
	if !ok {
		return 0
	}
	return counter.Load()
}

// Snapshot copies the current totals.
func (r *CountingRecorder) Snapshot() map[string]int64 {
	out := make(map[string]int64, r.counts.Size())
	r.counts.Range(func(fault string, counter *atomic.Int64) bool {
		out[fault] = counter.Load()
		return true
	})
	return out
}

// Reset zeroes every counter.
func (r *CountingRecorder) Reset() {
	r.counts.Range(func(_ string, counter *atomic.Int64) bool {
		counter.Store(0)
		return true
	})
}

// String renders the totals sorted by fault name, e.g. "lock_acquire_timeout=2, lock_not_found=1".
func (r *CountingRecorder) String() string {
	snapshot := r.Snapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, snapshot[name]))
	}
	return strings.Join(parts, ", ")
}

// Helper function to convert string tags to OpenTelemetry attributes
func attributesFromTags(tags []string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		attrs = append(attrs, attribute.String(tags[i], tags[i+1]))
	}
	return attrs
}

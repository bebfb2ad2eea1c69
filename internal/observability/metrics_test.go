// internal/observability/metrics_test.go
package observability

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountingRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewCountingRecorder()

	t.Run("counts_per_fault", func(t *testing.T) {
		r.RecordFault(ctx, "lock_acquire_timeout", "orders")
		r.RecordFault(ctx, "lock_acquire_timeout", "payments")
		r.RecordFault(ctx, "lock_not_found", "orders")

		assert.Equal(t, int64(2), r.Count("lock_acquire_timeout"))
		assert.Equal(t, int64(1), r.Count("lock_not_found"))
		assert.Equal(t, int64(0), r.Count("semaphore_expired"))
		assert.Equal(t, "lock_acquire_timeout=2, lock_not_found=1", r.String())
	})

	t.Run("reset", func(t *testing.T) {
		r.Reset()
		assert.Equal(t, map[string]int64{"lock_acquire_timeout": 0, "lock_not_found": 0}, r.Snapshot())
	})

	t.Run("concurrent", func(t *testing.T) {
		r.Reset()
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.RecordFault(ctx, "semaphore_acquire_failed", "pool")
			}()
		}
		wg.Wait()
		assert.Equal(t, int64(50), r.Count("semaphore_acquire_failed"))
	})
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)

	r.RecordFault(context.Background(), "lock_owned_by_others", "orders")
	r.RecordFault(context.Background(), "lock_owned_by_others", "orders")

	assert.Equal(t, float64(2), testutil.ToFloat64(r.Counter("lock_owned_by_others")))

	_, err = NewPrometheusRecorder(reg)
	assert.Error(t, err, "registering twice on the same registry should fail")
}

func TestOTelRecorder(t *testing.T) {
	r, err := NewOTelRecorder(Config{ServiceName: "redis-lock", ServiceVersion: "test"}, NewNopLogger())
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		r.RecordFault(context.Background(), "connectivity", "orders")
	})
}

func TestMetricsConfigValidate(t *testing.T) {
	assert.NoError(t, MetricsConfig{}.Validate())
	assert.NoError(t, MetricsConfig{Exporter: MetricsPrometheus}.Validate())
	assert.Error(t, MetricsConfig{Exporter: "statsd"}.Validate())
}

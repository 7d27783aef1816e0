package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/target-sherpaan/internal/purchase"
	"github.com/sirosfoundation/target-sherpaan/pkg/transport"
)

var (
	_ transport.Observer = (*Metrics)(nil)
	_ purchase.Observer  = (*Metrics)(nil)
)

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("AddOrderedPurchase", 120*time.Millisecond, nil)
	m.ObserveRequest("AddOrderedPurchase", 2*time.Second, errors.New("boom"))
	m.ObserveRequest("ChangePurchase2", 80*time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("AddOrderedPurchase", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("AddOrderedPurchase", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("ChangePurchase2", OutcomeSuccess)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestDuration))
}

func TestObserveRetryAndRecord(t *testing.T) {
	m := New()

	m.ObserveRetry("AddOrderedPurchase")
	m.ObserveRetry("AddOrderedPurchase")
	m.ObserveRecord(purchase.StageCompleted)
	m.ObserveRecord(purchase.StageSkipped)
	m.ObserveRecord(purchase.StageCompleted)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.retriesTotal.WithLabelValues("AddOrderedPurchase")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recordsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsTotal.WithLabelValues("skipped")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRequest("AddOrderedPurchase", time.Second, nil)
	m.ObserveRecord(purchase.StageFailed)

	path := filepath.Join(t.TempDir(), "sherpa.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `soap_requests_total{operation="AddOrderedPurchase",outcome="success"} 1`)
	assert.Contains(t, string(data), `records_total{outcome="failed"} 1`)
	assert.Contains(t, string(data), "# TYPE soap_request_duration_seconds histogram")
}

func TestWriteTextfile_BadPath(t *testing.T) {
	m := New()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "sherpa.prom"))
	assert.ErrorContains(t, err, "writing metrics file")
}

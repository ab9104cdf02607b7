package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/legis/internal/domain/entities"
	"github.com/ersonp/legis/internal/domain/ports"
)

func TestPrometheus_Counters(t *testing.T) {
	m := New()

	m.RenderCompleted(ports.RenderOK)
	m.RenderCompleted(ports.RenderOK)
	m.RenderCompleted(ports.RenderStale)
	m.PointVerified(entities.CriticalityCritical)
	m.ConflictDetected("variable.set")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.renders.WithLabelValues(ports.RenderOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renders.WithLabelValues(ports.RenderStale)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verified.WithLabelValues("critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflicts.WithLabelValues("variable.set")))
}

func TestPrometheus_SetPointStatus(t *testing.T) {
	m := New()

	m.SetPointStatus(entities.CriticalityHigh, 3, 1)
	m.SetPointStatus(entities.CriticalityHigh, 2, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.overdue.WithLabelValues("high")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.dueSoon.WithLabelValues("high")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.overdue)+testutil.CollectAndCount(m.dueSoon))
}

func TestPrometheus_Handler(t *testing.T) {
	m := New()
	m.ConflictDetected("point.verify")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `legis_concurrency_conflicts_total{operation="point.verify"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

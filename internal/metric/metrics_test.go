package metric

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAllCollectors(t *testing.T) {
	m := New()

	m.ConnectionsAccepted.Inc()
	m.Uploads.WithLabelValues("ACCEPTED").Inc()
	m.Uploads.WithLabelValues("DUPLICATE").Add(2)
	m.Persisted.Inc()
	m.BytesPersisted.Add(1024)
	m.QueueDepth.Set(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionsAccepted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Uploads.WithLabelValues("DUPLICATE")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.QueueDepth))
}

func TestHandler_ServesExposition(t *testing.T) {
	m := New()
	m.Uploads.WithLabelValues("QUEUE_FULL").Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "mediaingest_ingest_uploads_total"), "body: %.200s", body)
}

package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/shenikar/incident_alerts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertMetrics_ExposesCounters(t *testing.T) {
	m, err := NewAlertMetrics()
	require.NoError(t, err)

	m.Check("poll", 2)
	m.Delivery(models.ChannelSystem, models.OutcomeFailed)
	m.SessionOpened()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	assert.Contains(t, string(body), `incident_alerts_detector_new_incidents_total{source="poll"} 2`)
	assert.Contains(t, string(body), `incident_alerts_dispatcher_deliveries_total{channel="system",outcome="failed"} 1`)
	assert.Contains(t, string(body), `incident_alerts_session_active 1`)
}

func TestAlertMetrics_NilIsNoop(t *testing.T) {
	var m *AlertMetrics

	assert.NotPanics(t, func() {
		m.Check("push", 1)
		m.FetchError()
		m.Malformed()
		m.SessionClosed()
	})
}

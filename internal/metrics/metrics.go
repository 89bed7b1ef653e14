// Package metrics экспортирует показатели движка оповещений в Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shenikar/incident_alerts/internal/models"
)

// AlertMetrics - счетчики движка оповещений. Методы безопасны для nil-получателя.
type AlertMetrics struct {
	registry         *prometheus.Registry
	checksTotal      *prometheus.CounterVec
	newIncidents     *prometheus.CounterVec
	fetchErrors      prometheus.Counter
	transportErrors  prometheus.Counter
	malformed        prometheus.Counter
	deliveries       *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	activeSessions   prometheus.Gauge
}

// NewAlertMetrics регистрирует метрики в собственном реестре
func NewAlertMetrics() (*AlertMetrics, error) {
	registry := prometheus.NewRegistry()

	m := &AlertMetrics{
		registry: registry,
		checksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_alerts",
			Subsystem: "detector",
			Name:      "checks_total",
			Help:      "Number of change detection passes by trigger source.",
		}, []string{"source"}),
		newIncidents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_alerts",
			Subsystem: "detector",
			Name:      "new_incidents_total",
			Help:      "Number of incidents observed for the first time by trigger source.",
		}, []string{"source"}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_alerts",
			Subsystem: "detector",
			Name:      "fetch_errors_total",
			Help:      "Number of failed incident store fetches.",
		}),
		transportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_alerts",
			Subsystem: "bridge",
			Name:      "transport_errors_total",
			Help:      "Number of push channel connection failures.",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "incident_alerts",
			Subsystem: "dispatcher",
			Name:      "malformed_incidents_total",
			Help:      "Number of incidents excluded from zone matching due to invalid location.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incident_alerts",
			Subsystem: "dispatcher",
			Name:      "deliveries_total",
			Help:      "Channel delivery attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "incident_alerts",
			Subsystem: "dispatcher",
			Name:      "dispatch_duration_seconds",
			Help:      "Latency of dispatching one delta batch.",
			Buckets:   prometheus.DefBuckets,
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "incident_alerts",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of running alert sessions.",
		}),
	}

	collectors := []prometheus.Collector{
		m.checksTotal, m.newIncidents, m.fetchErrors, m.transportErrors,
		m.malformed, m.deliveries, m.dispatchDuration, m.activeSessions,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler возвращает HTTP-обработчик для /metrics
func (m *AlertMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *AlertMetrics) Check(source string, newCount int) {
	if m == nil {
		return
	}
	m.checksTotal.WithLabelValues(source).Inc()
	m.newIncidents.WithLabelValues(source).Add(float64(newCount))
}

func (m *AlertMetrics) FetchError() {
	if m == nil {
		return
	}
	m.fetchErrors.Inc()
}

func (m *AlertMetrics) TransportError() {
	if m == nil {
		return
	}
	m.transportErrors.Inc()
}

func (m *AlertMetrics) Malformed() {
	if m == nil {
		return
	}
	m.malformed.Inc()
}

func (m *AlertMetrics) Delivery(channel models.ChannelKind, outcome models.DeliveryOutcome) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(string(channel), string(outcome)).Inc()
}

func (m *AlertMetrics) ObserveDispatch(d time.Duration) {
	if m == nil {
		return
	}
	m.dispatchDuration.Observe(d.Seconds())
}

func (m *AlertMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *AlertMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"studyspace/backend/services/collector-service/internal/service"
)

// Metrics records collector activity in Prometheus.
type Metrics struct {
	readingsAccepted prometheus.Counter
	rejected         *prometheus.CounterVec
	calibrations     *prometheus.CounterVec
	configFetches    *prometheus.CounterVec
	streamClients    prometheus.Gauge
	requestDuration  *prometheus.HistogramVec
}

// New registers collector metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		readingsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collector_readings_accepted_total",
			Help: "Occupancy readings stored.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_requests_rejected_total",
			Help: "Requests answered with 400, by operation and reason.",
		}, []string{"operation", "reason"}),
		calibrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_calibration_requests_total",
			Help: "Calibration flags recorded, by requested value.",
		}, []string{"enabled"}),
		configFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_config_fetches_total",
			Help: "Config fetches, by whether a pending flag was delivered.",
		}, []string{"delivered"}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "collector_stream_clients",
			Help: "Connected live feed clients.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "collector_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"route", "method", "status"}),
	}

	reg.MustRegister(
		m.readingsAccepted,
		m.rejected,
		m.calibrations,
		m.configFetches,
		m.streamClients,
		m.requestDuration,
	)
	return m
}

// ReadingAccepted counts a stored reading. Node ids come from clients and are not used as labels.
func (m *Metrics) ReadingAccepted(string) {
	m.readingsAccepted.Inc()
}

// RequestRejected counts a 400 answer by operation and error kind.
func (m *Metrics) RequestRejected(operation string, err error) {
	reason := "other"
	switch {
	case errors.Is(err, service.ErrInvalidPayload):
		reason = "invalid_payload"
	case errors.Is(err, service.ErrMissingField):
		reason = "missing_field"
	}
	m.rejected.WithLabelValues(operation, reason).Inc()
}

// CalibrationRequested counts a recorded calibration flag.
func (m *Metrics) CalibrationRequested(enabled bool) {
	m.calibrations.WithLabelValues(strconv.FormatBool(enabled)).Inc()
}

// ConfigFetched counts a config fetch by whether a pending flag was delivered.
func (m *Metrics) ConfigFetched(delivered bool) {
	m.configFetches.WithLabelValues(strconv.FormatBool(delivered)).Inc()
}

// SetStreamClients updates the live feed gauge.
func (m *Metrics) SetStreamClients(n int) {
	m.streamClients.Set(float64(n))
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

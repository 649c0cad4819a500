package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	metricPrefix = "sentinel_"

	resultSuccess = "success"
)

var (
	registerOnce sync.Once

	alertsCreated    *prometheus.CounterVec
	alertsSuppressed *prometheus.CounterVec
	alertsResolved   *prometheus.CounterVec

	maintenanceLogged prometheus.Counter

	sensorReadings *prometheus.CounterVec

	complianceScanTotal   *prometheus.CounterVec
	complianceScanLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger logrus.FieldLogger) {
	registerOnce.Do(func() {
		alertsCreated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_created_total",
				Help: "Total alerts created by type",
			},
			[]string{"type"},
		)
		alertsSuppressed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_suppressed_total",
				Help: "Total alert creations suppressed by dedup, by type",
			},
			[]string{"type"},
		)
		alertsResolved = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_resolved_total",
				Help: "Total alerts resolved by type",
			},
			[]string{"type"},
		)

		maintenanceLogged = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "maintenance_logged_total",
				Help: "Total maintenance actions logged",
			},
		)

		sensorReadings = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sensor_readings_total",
				Help: "Total sensor readings ingested by status",
			},
			[]string{"status"},
		)

		complianceScanTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "compliance_scans_total",
				Help: "Total compliance scans by result",
			},
			[]string{"result"},
		)
		complianceScanLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "compliance_scan_latency_seconds",
				Help:    "Compliance scan latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status",
			},
			[]string{"method", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		)

		prometheus.MustRegister(
			alertsCreated,
			alertsSuppressed,
			alertsResolved,
			maintenanceLogged,
			sensorReadings,
			complianceScanTotal,
			complianceScanLatency,
			httpRequests,
			httpLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// IncAlertCreated increments the created counter for an alert type.
func IncAlertCreated(alertType string) {
	if alertsCreated != nil {
		alertsCreated.WithLabelValues(alertType).Inc()
	}
}

// IncAlertSuppressed increments the dedup-suppression counter.
func IncAlertSuppressed(alertType string) {
	if alertsSuppressed != nil {
		alertsSuppressed.WithLabelValues(alertType).Inc()
	}
}

// IncAlertResolved increments the resolved counter for an alert type.
func IncAlertResolved(alertType string) {
	if alertsResolved != nil {
		alertsResolved.WithLabelValues(alertType).Inc()
	}
}

// AddAlertsResolved increments the resolved counter by a batch count.
func AddAlertsResolved(count int) {
	if count <= 0 {
		return
	}
	if alertsResolved != nil {
		alertsResolved.WithLabelValues("batch").Add(float64(count))
	}
}

// IncMaintenanceLogged increments the logged-maintenance counter.
func IncMaintenanceLogged() {
	if maintenanceLogged != nil {
		maintenanceLogged.Inc()
	}
}

// IncSensorReading increments the ingested-reading counter for a status.
func IncSensorReading(status string) {
	if sensorReadings != nil {
		sensorReadings.WithLabelValues(status).Inc()
	}
}

// ObserveComplianceScan records scan latency and result.
func ObserveComplianceScan(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if complianceScanTotal != nil {
		complianceScanTotal.WithLabelValues(result).Inc()
	}
	if complianceScanLatency != nil {
		complianceScanLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveHTTP records request count and latency.
func ObserveHTTP(method, status string, duration time.Duration) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, status).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method).Observe(duration.Seconds())
	}
}

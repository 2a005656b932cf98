// Package metrics records run statistics on a prometheus registry. Runs are
// short-lived processes, so the registry is written out as a node-exporter
// textfile instead of being scraped.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stockalert"

// Metrics holds the collectors of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	filesProcessed *prometheus.CounterVec
	rowsParsed     *prometheus.CounterVec
	rowsSkipped    *prometheus.CounterVec
	shortages      *prometheus.GaugeVec
	notifications  *prometheus.CounterVec
	portalRuns     *prometheus.CounterVec
	lastRun        *prometheus.GaugeVec
}

// New creates a registry with all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		filesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Stock and threshold files considered, by format and outcome.",
		}, []string{"kind", "status"}),
		rowsParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "Rows that produced a product code and quantity.",
		}, []string{"portal"}),
		rowsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Rows dropped because a code or quantity was missing or invalid.",
		}, []string{"portal", "column"}),
		shortages: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "shortages",
			Help:      "Products at or below their minimum stock in the last run.",
		}, []string{"portal"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by channel and outcome.",
		}, []string{"channel", "status"}),
		portalRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portal_runs_total",
			Help:      "Single-portal runs started by the batch runner, by outcome.",
		}, []string{"portal", "status"}),
		lastRun: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the portal was last processed.",
		}, []string{"portal"}),
	}
}

func (m *Metrics) FileProcessed(kind, status string) {
	if m == nil {
		return
	}
	m.filesProcessed.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) RowsParsed(portal string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.rowsParsed.WithLabelValues(portal).Add(float64(n))
}

func (m *Metrics) RowSkipped(portal, column string) {
	if m == nil {
		return
	}
	m.rowsSkipped.WithLabelValues(portal, column).Inc()
}

func (m *Metrics) Shortages(portal string, n int) {
	if m == nil {
		return
	}
	m.shortages.WithLabelValues(portal).Set(float64(n))
	m.lastRun.WithLabelValues(portal).SetToCurrentTime()
}

func (m *Metrics) Notification(channel string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.notifications.WithLabelValues(channel, status).Inc()
}

func (m *Metrics) PortalRun(portal string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.portalRuns.WithLabelValues(portal, status).Inc()
}

// WriteTextfile writes the registry in text exposition format. An empty path
// is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}

/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-throttlekit/internal/libinfo"
)

const (
	metricsLabelScope = "scope"
	metricsLabelOp    = "op"
)

// MetricsCollector receives throttling outcomes.
type MetricsCollector interface {
	IncAdmitted(scope string)
	IncRejected(scope string)
	IncStoreErrors(op string)
}

// PrometheusMetricsOpts configures PrometheusMetrics.
type PrometheusMetricsOpts struct {
	Namespace   string
	ConstLabels prometheus.Labels
}

// PrometheusMetrics is a MetricsCollector exporting Prometheus counters.
type PrometheusMetrics struct {
	Admitted    *prometheus.CounterVec
	Rejected    *prometheus.CounterVec
	StoreErrors *prometheus.CounterVec
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates PrometheusMetrics with the given options.
// The library version is always added to the constant labels.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	opts.ConstLabels = libinfo.AddPrometheusLibVersionLabel(opts.ConstLabels)
	return &PrometheusMetrics{
		Admitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "throttle_requests_admitted_total",
			Help:        "Number of requests admitted by throttling.",
			ConstLabels: opts.ConstLabels,
		}, []string{metricsLabelScope}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "throttle_requests_rejected_total",
			Help:        "Number of requests rejected because the rate of their scope was exceeded.",
			ConstLabels: opts.ConstLabels,
		}, []string{metricsLabelScope}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "throttle_store_errors_total",
			Help:        "Number of failed window store operations.",
			ConstLabels: opts.ConstLabels,
		}, []string{metricsLabelOp}),
	}
}

// MustRegister registers the metrics in the default Prometheus registry and panics on error.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.Admitted, pm.Rejected, pm.StoreErrors)
}

// Unregister removes the metrics from the default Prometheus registry.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.Admitted)
	prometheus.Unregister(pm.Rejected)
	prometheus.Unregister(pm.StoreErrors)
}

// IncAdmitted implements MetricsCollector.
func (pm *PrometheusMetrics) IncAdmitted(scope string) {
	pm.Admitted.With(prometheus.Labels{metricsLabelScope: scope}).Inc()
}

// IncRejected implements MetricsCollector.
func (pm *PrometheusMetrics) IncRejected(scope string) {
	pm.Rejected.With(prometheus.Labels{metricsLabelScope: scope}).Inc()
}

// IncStoreErrors implements MetricsCollector.
func (pm *PrometheusMetrics) IncStoreErrors(op string) {
	pm.StoreErrors.With(prometheus.Labels{metricsLabelOp: op}).Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) IncAdmitted(string)    {}
func (disabledMetrics) IncRejected(string)    {}
func (disabledMetrics) IncStoreErrors(string) {}

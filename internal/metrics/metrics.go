// Package metrics exposes Prometheus collectors for the HTTP layer and the
// payment workflow. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cartao"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	purchasesCreated    prometheus.Counter
	installmentsPaid    prometheus.Counter
	installmentsUnpaid  prometheus.Counter
	installmentsSettled prometheus.Counter
	receiptCleanups     *prometheus.CounterVec
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		purchasesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_created_total",
			Help:      "Purchases registered.",
		}),
		installmentsPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installments_paid_total",
			Help:      "Installments marked as paid one by one.",
		}),
		installmentsUnpaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installments_unpaid_total",
			Help:      "Installments moved back to pending.",
		}),
		installmentsSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installments_settled_total",
			Help:      "Installments marked as paid by bulk settle.",
		}),
		receiptCleanups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_cleanups_total",
			Help:      "Receipt blob deletions by outcome (deleted, queued, failed).",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.purchasesCreated,
		m.installmentsPaid,
		m.installmentsUnpaid,
		m.installmentsSettled,
		m.receiptCleanups,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) PurchaseCreated() {
	if m == nil {
		return
	}
	m.purchasesCreated.Inc()
}

func (m *Metrics) InstallmentPaid() {
	if m == nil {
		return
	}
	m.installmentsPaid.Inc()
}

func (m *Metrics) InstallmentUnpaid() {
	if m == nil {
		return
	}
	m.installmentsUnpaid.Inc()
}

func (m *Metrics) InstallmentsSettled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.installmentsSettled.Add(float64(n))
}

// Receipt cleanup outcomes.
const (
	CleanupDeleted = "deleted"
	CleanupQueued  = "queued"
	CleanupFailed  = "failed"
)

func (m *Metrics) ReceiptCleanup(outcome string) {
	if m == nil {
		return
	}
	m.receiptCleanups.WithLabelValues(outcome).Inc()
}

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

const namespace = "gst_billing"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	InvoicesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoices_created_total",
		Help:      "Invoices created, split by supply type (intra or inter).",
	}, []string{"supply"})

	InvoiceGrandTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoice_grand_total_rupees_total",
		Help:      "Sum of grand totals of created invoices in rupees.",
	})

	InvoiceStatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoice_status_changes_total",
		Help:      "Invoice status transitions by target status.",
	}, []string{"status"})

	ImportedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imported_rows_total",
		Help:      "Rows processed by customer and product imports.",
	}, []string{"entity", "result"})
)

// RecordInvoiceCreated updates the invoice counters
func RecordInvoiceCreated(interState bool, grandTotal decimal.Decimal) {
	supply := "intra"
	if interState {
		supply = "inter"
	}
	InvoicesCreated.WithLabelValues(supply).Inc()
	InvoiceGrandTotal.Add(grandTotal.InexactFloat64())
}

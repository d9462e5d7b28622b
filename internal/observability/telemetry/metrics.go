package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	CustomerOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gic_customer_operations_total",
		Help: "Customer operations by name and outcome kind",
	}, []string{"operation", "outcome"})

	CustomerOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gic_customer_operation_duration_seconds",
		Help:    "Latency of customer service operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	CustomersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gic_customers_created_total",
		Help: "Customers created by variant",
	}, []string{"variant"})

	CustomersImportedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gic_customers_imported_total",
		Help: "Imported rows by result",
	}, []string{"result"})

	IdentityChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gic_identity_checks_total",
		Help: "Identity verifications by verdict source",
	}, []string{"source", "valid"})

	WelcomeEmailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gic_welcome_emails_total",
		Help: "Welcome emails by result",
	}, []string{"result"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gic_events_published_total",
		Help: "Lifecycle events handed to the broker",
	}, []string{"type", "status"})

	// Infrastructure metrics
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gic_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gic_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestTotal counts HTTP requests by method, route and status code.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdtp_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sdtp_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	// OperationsTotal counts dispatched protocol operations by outcome, which is either
	// "ok" or the error kind.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdtp_operations_total",
			Help: "Total number of dispatched protocol operations",
		},
		[]string{"operation", "status"},
	)
	// RowsReturned counts the rows sent to clients per table.
	RowsReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdtp_rows_returned_total",
			Help: "Total number of rows returned by get_filtered_rows",
		},
		[]string{"table"},
	)
)

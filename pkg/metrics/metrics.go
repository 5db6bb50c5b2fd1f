package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP

// HttpRequestsTotal counts handled requests.
// Labels: method, path (route template), status
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"method", "path", "status"},
)

var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"method", "path"},
)

var HttpRequestsInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
)

// Catalog

// CatalogWrites counts committed and failed product/asset writes.
// Labels: operation (create_product, delete_asset, ...), result (committed, rolled_back)
var CatalogWrites = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_writes_total",
		Help: "Total number of catalog write transactions",
	},
	[]string{"operation", "result"},
)

// UploadedFilesDeleted counts physical file removals.
// Labels: reason (superseded, rollback, rejected), result (deleted, missing, failed)
var UploadedFilesDeleted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "uploaded_files_deleted_total",
		Help: "Total number of uploaded files removed from storage",
	},
	[]string{"reason", "result"},
)

var CacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Catalog cache lookups by result",
	},
	[]string{"key", "result"}, // hit, miss, error
)

var EventsPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_events_published_total",
		Help: "Catalog events sent to the broker",
	},
	[]string{"type", "result"},
)

// Analytics

var AnalyticsEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "analytics_events_total",
		Help: "Recorded visitor analytics events",
	},
	[]string{"type"},
)

var GeoLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "geo_lookups_total",
		Help: "IP geolocation lookups by result",
	},
	[]string{"result"}, // resolved, unknown
)

// Auth

var AuthLogins = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Total number of login attempts",
	},
	[]string{"status"}, // success, failed
)

var SessionsPurged = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "auth_sessions_purged_total",
		Help: "Expired sessions removed by the purge job",
	},
)

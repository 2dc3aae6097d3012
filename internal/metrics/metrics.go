// Package metrics holds the Prometheus collectors for the service and the
// registry they are exposed from at /metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kasetinfo/internal/auth"
	"kasetinfo/internal/models"
)

// Registry is the registry served at /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests, HTTPDuration,
		CatalogItems, CatalogFetches, ItemMutations,
		ImageUploads, AuthEvents,
	)
}

// HTTPRequests counts handled requests by route pattern and status.
var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kasetinfo_http_requests_total",
		Help: "HTTP requests by method, route pattern, and status code.",
	},
	[]string{"method", "route", "status"},
)

// HTTPDuration observes request latency.
var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kasetinfo_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// CatalogItems is the number of items held in memory.
var CatalogItems = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "kasetinfo_catalog_items",
		Help: "Items currently held in the in-memory catalog.",
	},
)

// CatalogFetches counts full catalog loads.
var CatalogFetches = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kasetinfo_catalog_fetches_total",
		Help: "Full catalog fetches by result.",
	},
	[]string{"result"}, // ok | error
)

// ItemMutations counts item writes that reached the catalog.
var ItemMutations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kasetinfo_item_mutations_total",
		Help: "Item creates and updates applied to the catalog.",
	},
	[]string{"op"}, // create | update
)

// ImageUploads counts image uploads.
var ImageUploads = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kasetinfo_image_uploads_total",
		Help: "Image uploads by result.",
	},
	[]string{"result"}, // ok | rejected | error
)

// AuthEvents counts sign-ins, sign-outs, and failed attempts.
var AuthEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kasetinfo_auth_events_total",
		Help: "Authentication events by kind.",
	},
	[]string{"kind"}, // signed_in | signed_out | failed | error
)

// ObserveAuth counts a session event. Register it with auth.Service.Subscribe.
func ObserveAuth(e auth.Event) {
	AuthEvents.WithLabelValues(e.Kind.String()).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveFetch records the outcome of a catalog fetch and the resulting size.
func ObserveFetch(err error, items int) {
	if err != nil {
		CatalogFetches.WithLabelValues("error").Inc()
		return
	}
	CatalogFetches.WithLabelValues("ok").Inc()
	CatalogItems.Set(float64(items))
}

// CatalogObserver counts catalog mutations. It satisfies the catalog's
// notifier interface.
type CatalogObserver struct{}

// ItemCreated records an insert.
func (CatalogObserver) ItemCreated(_ context.Context, _ models.Item) {
	ItemMutations.WithLabelValues("create").Inc()
	CatalogItems.Inc()
}

// ItemUpdated records an in-place update.
func (CatalogObserver) ItemUpdated(_ context.Context, _ models.Item) {
	ItemMutations.WithLabelValues("update").Inc()
}

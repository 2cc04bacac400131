package observability

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lolaelo", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lolaelo", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lolaelo", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lolaelo", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lolaelo", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	DerivedInserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lolaelo", Name: "derived_price_inserts_total", Help: "Lazy price materializations."},
		[]string{"outcome"}, // outcome: insert|conflict
	)
	CalendarLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lolaelo", Name: "calendar_assembly_duration_seconds",
			Help:    "Calendar assembly duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"}, // mode: default|plan|expanded
	)
	BulkItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lolaelo", Name: "bulk_upsert_items_total", Help: "Bulk gateway items."},
		[]string{"ledger", "result"}, // ledger: inventory|price; result: applied|skipped
	)
)

func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents,
		DerivedInserts, CalendarLatency, BulkItems)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveDerivedInsert(inserted bool) {
	outcome := "insert"
	if !inserted {
		outcome = "conflict"
	}
	DerivedInserts.WithLabelValues(outcome).Inc()
}

func ObserveCalendar(mode string, dur time.Duration) {
	CalendarLatency.WithLabelValues(mode).Observe(dur.Seconds())
}

func ObserveBulkItems(ledger string, applied, skipped int) {
	if applied > 0 {
		BulkItems.WithLabelValues(ledger, "applied").Add(float64(applied))
	}
	if skipped > 0 {
		BulkItems.WithLabelValues(ledger, "skipped").Add(float64(skipped))
	}
}

func LabelErr(err error) string {
	if err == nil {
		return "none"
	}
	return fmt.Sprintf("%T", err)
}

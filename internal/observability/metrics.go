package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "propsearch", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "propsearch", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	Searches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "propsearch", Name: "searches_total", Help: "Searches by strategy and outcome."},
		[]string{"strategy", "outcome"}, // outcome: ok|empty|invalid|station_not_found|error
	)
	Parses = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "propsearch", Name: "parses_total", Help: "Query parses by method."},
		[]string{"method", "cached"},
	)
	ModelRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "propsearch", Name: "model_requests_total", Help: "Language-model completions."},
		[]string{"status"},
	)
	ModelLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "propsearch", Name: "model_request_duration_seconds",
			Help:    "Language-model completion duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	ModelTokens = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "propsearch", Name: "model_tokens_total", Help: "Tokens spent on escalated parses."},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "propsearch", Name: "cache_events_total", Help: "Cache hits/misses/sets/errors."},
		[]string{"cache", "event"}, // event: hit|miss|set|error
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, Searches, Parses, ModelRequests, ModelLatency, ModelTokens, CacheEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveSearch(strategy, outcome string) {
	Searches.WithLabelValues(strategy, outcome).Inc()
}

func ObserveParse(method string, cached bool) {
	Parses.WithLabelValues(method, strconv.FormatBool(cached)).Inc()
}

func ObserveModel(err error, tokens int, dur time.Duration) {
	ModelRequests.WithLabelValues(LabelErr(err)).Inc()
	ModelLatency.Observe(dur.Seconds())
	if tokens > 0 {
		ModelTokens.Add(float64(tokens))
	}
}

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func LabelErr(err error) string {
	if err == nil {
		return "ok"
	}
	return fmt.Sprintf("%T", err)
}

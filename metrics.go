package main

import (
	"net/http"

	"github.com/geotrack/geotrack/geolib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "geotrack"

// usageStatsCollector exposes provider usage stats of orchestrator.
// Values are read on every scrape, nothing is cached.
type usageStatsCollector struct {
	source func() []*geolib.UsageStats

	lookups    *prometheus.Desc
	lastUsed   *prometheus.Desc
	lastFailed *prometheus.Desc
}

func (u usageStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- u.lookups
	ch <- u.lastUsed
	ch <- u.lastFailed
}

func (u usageStatsCollector) Collect(ch chan<- prometheus.Metric) {
	for _, v := range u.source() {
		snapshot := v.Snapshot()

		ch <- prometheus.MustNewConstMetric(u.lookups,
			prometheus.CounterValue,
			float64(snapshot.SuccessCount),
			snapshot.Name, "success")
		ch <- prometheus.MustNewConstMetric(u.lookups,
			prometheus.CounterValue,
			float64(snapshot.FailureCount),
			snapshot.Name, "failure")

		if !snapshot.LastUsed.IsZero() {
			ch <- prometheus.MustNewConstMetric(u.lastUsed,
				prometheus.GaugeValue,
				float64(snapshot.LastUsed.Unix()),
				snapshot.Name)
		}

		if !snapshot.LastFailed.IsZero() {
			ch <- prometheus.MustNewConstMetric(u.lastFailed,
				prometheus.GaugeValue,
				float64(snapshot.LastFailed.Unix()),
				snapshot.Name)
		}
	}
}

func newUsageStatsCollector(source func() []*geolib.UsageStats) prometheus.Collector {
	return usageStatsCollector{
		source: source,
		lookups: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "provider", "lookups_total"),
			"Number of provider lookups by outcome.",
			[]string{"provider", "status"}, nil),
		lastUsed: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "provider", "last_used_timestamp_seconds"),
			"When provider was asked last time.",
			[]string{"provider"}, nil),
		lastFailed: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "provider", "last_failed_timestamp_seconds"),
			"When provider failed last time.",
			[]string{"provider"}, nil),
	}
}

type httpMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func (h httpMetrics) Instrument(handler http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(h.duration,
		promhttp.InstrumentHandlerCounter(h.requests, handler))
}

func (h httpMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}

func newHTTPMetrics(orchestrator *geolib.Orchestrator) httpMetrics {
	rv := httpMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Number of served HTTP requests.",
		}, []string{"code", "method"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time spent to serve HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method"}),
	}

	rv.registry.MustRegister(rv.requests,
		rv.duration,
		newUsageStatsCollector(orchestrator.UsageStats),
		collectors.NewGoCollector())

	return rv
}

// Package metrics exports service observations in the Prometheus text format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/eventmap/internal/core"
)

const namespace = "eventmap"

// Recorder implements core.MetricsRecorder on a private Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	recomputeDuration prometheus.Histogram
	recomputes        prometheus.Counter
	superseded        prometheus.Counter
	snapshotEvents    *prometheus.GaugeVec
	indexedSheets     prometheus.Gauge
	diagnostics       prometheus.Gauge

	sheetLoadDuration *prometheus.HistogramVec
	sheetLoads        *prometheus.CounterVec
	sheetRows         *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ core.MetricsRecorder = (*Recorder)(nil)

// NewRecorder creates a Recorder. When withRuntime is true the Go runtime and
// process collectors are registered as well.
func NewRecorder(withRuntime bool) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Time spent recomputing the derived dataset.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputes_total",
			Help:      "Snapshots published.",
		}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputes_superseded_total",
			Help:      "Recomputations discarded because a newer write arrived.",
		}),
		snapshotEvents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_events",
			Help:      "Events in the current snapshot by stage.",
		}, []string{"stage"}),
		indexedSheets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_indexed_sheets",
			Help:      "Dimension sheets with an inferred key in the current snapshot.",
		}),
		diagnostics: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_diagnostics",
			Help:      "Diagnostics attached to the current snapshot.",
		}),

		sheetLoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sheet_load_duration_seconds",
			Help:      "Time spent fetching one sheet.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sheet"}),
		sheetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheet_loads_total",
			Help:      "Sheet fetches by outcome.",
		}, []string{"sheet", "status"}),
		sheetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sheet_rows",
			Help:      "Rows returned by the last successful fetch of a sheet.",
		}, []string{"sheet"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		r.recomputeDuration, r.recomputes, r.superseded,
		r.snapshotEvents, r.indexedSheets, r.diagnostics,
		r.sheetLoadDuration, r.sheetLoads, r.sheetRows,
		r.httpRequests, r.httpDuration,
	)
	if withRuntime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveRecompute records a published snapshot.
func (r *Recorder) ObserveRecompute(stats core.SnapshotStats, d time.Duration) {
	r.recomputes.Inc()
	r.recomputeDuration.Observe(d.Seconds())
	r.snapshotEvents.WithLabelValues("normalized").Set(float64(stats.Events))
	r.snapshotEvents.WithLabelValues("filtered").Set(float64(stats.Filtered))
	r.snapshotEvents.WithLabelValues("mappable").Set(float64(stats.Mappable))
	r.indexedSheets.Set(float64(stats.IndexedSheets))
	r.diagnostics.Set(float64(stats.Diagnostics))
}

// ObserveSuperseded records a discarded recomputation.
func (r *Recorder) ObserveSuperseded() {
	r.superseded.Inc()
}

// ObserveSheetLoad records one sheet fetch.
func (r *Recorder) ObserveSheetLoad(sheet core.SheetName, rows int, d time.Duration, err error) {
	name := string(sheet)
	status := "success"
	if err != nil {
		status = "error"
	}
	r.sheetLoads.WithLabelValues(name, status).Inc()
	r.sheetLoadDuration.WithLabelValues(name).Observe(d.Seconds())
	if err == nil {
		r.sheetRows.WithLabelValues(name).Set(float64(rows))
	}
}

// ObserveRequest records one HTTP request. route should be the matched
// pattern, not the raw path, to keep label cardinality bounded.
func (r *Recorder) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

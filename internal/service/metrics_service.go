package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// export pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	jobsSubmitted   *prometheus.CounterVec
	jobsCompleted   *prometheus.CounterVec
	jobDuration     prometheus.Observer
	batchRecords    *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	jobsSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "export_jobs_submitted_total",
		Help: "Export jobs accepted, by task type",
	}, []string{"task_type"})

	jobsCompleted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "export_jobs_completed_total",
		Help: "Export jobs reaching a terminal state, by state",
	}, []string{"state"})

	jobDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "export_job_duration_seconds",
		Help:    "Wall time from submission to terminal state",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
	})

	batchRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_batch_records_total",
		Help: "Batch enrollment records processed, by outcome class",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite,
		cacheHits, cacheMisses, dbQueryDuration, jobsSubmitted, jobsCompleted,
		jobDuration, batchRecords, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		jobsSubmitted:   jobsSubmitted,
		jobsCompleted:   jobsCompleted,
		jobDuration:     jobDuration,
		batchRecords:    batchRecords,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordJobSubmitted counts an accepted export job.
func (m *MetricsService) RecordJobSubmitted(taskType string) {
	if m == nil {
		return
	}
	m.jobsSubmitted.WithLabelValues(taskType).Inc()
}

// RecordJobCompleted counts a job reaching a terminal state.
func (m *MetricsService) RecordJobCompleted(state string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobsCompleted.WithLabelValues(state).Inc()
	if m.jobDuration != nil {
		m.jobDuration.Observe(duration.Seconds())
	}
}

// RecordBatchOutcomes counts per-record batch write outcomes.
func (m *MetricsService) RecordBatchOutcomes(succeeded, failed int) {
	if m == nil {
		return
	}
	if succeeded > 0 {
		m.batchRecords.WithLabelValues("succeeded").Add(float64(succeeded))
	}
	if failed > 0 {
		m.batchRecords.WithLabelValues("failed").Add(float64(failed))
	}
}

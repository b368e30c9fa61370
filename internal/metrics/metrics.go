// Package metrics provides Prometheus metrics for mediadesk.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Backend API metrics
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediadesk_api_requests_total",
			Help: "Total number of backend API requests",
		},
		[]string{"operation", "status"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediadesk_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediadesk_api_rate_limit_hits_total",
			Help: "Total 429 responses from the backend",
		},
	)

	// Transfer metrics
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediadesk_uploads_total",
			Help: "Total number of hosted media uploads",
		},
		[]string{"provider", "status"},
	)

	uploadBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediadesk_upload_bytes_total",
			Help: "Total bytes uploaded to the hosted media service",
		},
		[]string{"provider"},
	)

	uploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediadesk_upload_duration_seconds",
			Help:    "Hosted upload duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"provider"},
	)

	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediadesk_downloads_total",
			Help: "Total number of media downloads",
		},
		[]string{"status"},
	)

	// Library metrics
	folderTreeSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediadesk_folder_tree_size",
			Help: "Number of folders in the last built tree",
		},
	)

	refreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediadesk_refreshes_total",
			Help: "Total library re-fetches by reason",
		},
		[]string{"reason", "status"},
	)

	// Report export metrics
	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediadesk_exports_total",
			Help: "Total report exports",
		},
		[]string{"report", "format", "scope"},
	)

	exportRows = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediadesk_export_rows",
			Help:    "Rows written per report export",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"report", "format"},
	)

	// Dashboard HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediadesk_http_requests_total",
			Help: "Total number of dashboard HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediadesk_http_request_duration_seconds",
			Help:    "Dashboard HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	eventsDropped = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediadesk_events_dropped",
			Help: "Events dropped by the in-process event bus",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordAPIRequest records one backend call. status is the HTTP status,
// 0 for a transport failure.
func RecordAPIRequest(operation string, status int, duration time.Duration) {
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	apiRequestsTotal.WithLabelValues(operation, label).Inc()
	apiRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRateLimitHit records a 429 from the backend.
func RecordRateLimitHit() {
	rateLimitHitsTotal.Inc()
}

// RecordUpload records one hosted upload attempt.
func RecordUpload(provider string, bytes int64, duration time.Duration, success bool) {
	uploadsTotal.WithLabelValues(provider, statusLabel(success)).Inc()
	if success {
		uploadBytes.WithLabelValues(provider).Add(float64(bytes))
		uploadDuration.WithLabelValues(provider).Observe(duration.Seconds())
	}
}

// RecordDownload records a media download.
func RecordDownload(success bool) {
	downloadsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// SetFolderTreeSize sets the folder count of the last built tree.
func SetFolderTreeSize(n int) {
	folderTreeSize.Set(float64(n))
}

// RecordRefresh records a library re-fetch.
func RecordRefresh(reason string, success bool) {
	refreshesTotal.WithLabelValues(reason, statusLabel(success)).Inc()
}

// RecordExport records a report export.
func RecordExport(report, format, scope string, rows int) {
	exportsTotal.WithLabelValues(report, format, scope).Inc()
	exportRows.WithLabelValues(report, format).Observe(float64(rows))
}

// SetEventsDropped publishes the event bus drop count.
func SetEventsDropped(n int64) {
	eventsDropped.Set(float64(n))
}

// RecordHTTPRequest records a dashboard HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request metrics. Paths are labeled with the matched
// mux route template so member ids do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, routeLabel(r), rw.statusCode, time.Since(start))
	})
}

func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

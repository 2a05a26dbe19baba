package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	AnalysesSubmitted  uint64
	AnalysesTracking   uint64
	AnalysesCompleted  uint64
	AnalysesFailed     uint64
	PollTickErrors     uint64
	FixesApplied       uint64
	FixesRejected      uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// IncrementRequests increments total request counter
func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

// IncrementInProgress increments in-progress request counter
func IncrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
}

// DecrementInProgress decrements in-progress request counter
func DecrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))
}

// IncrementSuccess increments successful request counter
func IncrementSuccess() {
	atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
}

// IncrementFailed increments failed request counter
func IncrementFailed() {
	atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
}

// IncrementSubmitted counts analyses triggered through the console
func IncrementSubmitted() {
	atomic.AddUint64(&globalMetrics.AnalysesSubmitted, 1)
}

// IncrementTracking increments running trackers
func IncrementTracking() {
	atomic.AddUint64(&globalMetrics.AnalysesTracking, 1)
}

// DecrementTracking decrements running trackers
func DecrementTracking() {
	atomic.AddUint64(&globalMetrics.AnalysesTracking, ^uint64(0))
}

// IncrementCompleted counts analyses tracked to completion
func IncrementCompleted() {
	atomic.AddUint64(&globalMetrics.AnalysesCompleted, 1)
}

// IncrementAnalysesFailed counts analyses the service reported as failed
func IncrementAnalysesFailed() {
	atomic.AddUint64(&globalMetrics.AnalysesFailed, 1)
}

// IncrementPollTickErrors counts absorbed per-tick errors
func IncrementPollTickErrors() {
	atomic.AddUint64(&globalMetrics.PollTickErrors, 1)
}

// IncrementFixesApplied counts accepted fixes
func IncrementFixesApplied() {
	atomic.AddUint64(&globalMetrics.FixesApplied, 1)
}

// IncrementFixesRejected counts success:false fix outcomes
func IncrementFixesRejected() {
	atomic.AddUint64(&globalMetrics.FixesRejected, 1)
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"analyses_submitted":   atomic.LoadUint64(&globalMetrics.AnalysesSubmitted),
		"analyses_tracking":    atomic.LoadUint64(&globalMetrics.AnalysesTracking),
		"analyses_completed":   atomic.LoadUint64(&globalMetrics.AnalysesCompleted),
		"analyses_failed":      atomic.LoadUint64(&globalMetrics.AnalysesFailed),
		"poll_tick_errors":     atomic.LoadUint64(&globalMetrics.PollTickErrors),
		"fixes_applied":        atomic.LoadUint64(&globalMetrics.FixesApplied),
		"fixes_rejected":       atomic.LoadUint64(&globalMetrics.FixesRejected),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()

		// Wrap response writer to capture status
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		// Track success/failure based on status code
		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			IncrementSuccess()
		} else {
			IncrementFailed()
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}

package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Authentication metrics
	LoginCounter    prometheus.Counter
	RegisterCounter prometheus.Counter
	AuthErrors      *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Resource metrics
	ResourceOperations *prometheus.CounterVec
	ImageUploads       *prometheus.CounterVec
	RateLimited        *prometheus.CounterVec

	initOnce sync.Once
)

// InitMetrics registers the domain metrics under the given prefix. Only the first call has effect.
func InitMetrics(prefix string) {
	initOnce.Do(func() {
		LoginCounter = promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_login_attempts_total",
			Help: "Total number of token requests",
		})

		RegisterCounter = promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_registrations_total",
			Help: "Total number of user registration attempts",
		})

		AuthErrors = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Authentication and registration errors by reason",
		}, []string{"reason"})

		DbOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation_type"})

		ResourceOperations = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_resource_operations_total",
			Help: "Total number of resource operations",
		}, []string{"resource", "operation"})

		ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_image_uploads_total",
			Help: "Image uploads by resource and outcome",
		}, []string{"resource", "outcome"})

		RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"route"})
	})
}

// RecordAuthError increments the auth error counter for a reason
func RecordAuthError(reason string) {
	if AuthErrors != nil {
		AuthErrors.WithLabelValues(reason).Inc()
	}
}

// IncLogin counts one token request
func IncLogin() {
	if LoginCounter != nil {
		LoginCounter.Inc()
	}
}

// IncRegister counts one registration request
func IncRegister() {
	if RegisterCounter != nil {
		RegisterCounter.Inc()
	}
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration != nil {
			DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
		}
	}
}

// RecordOperation increments the operation counter of a resource
func RecordOperation(resource, operation string) {
	if ResourceOperations != nil {
		ResourceOperations.WithLabelValues(resource, operation).Inc()
	}
}

// RecordImageUpload counts an upload attempt and its outcome ("stored", "rejected", "failed")
func RecordImageUpload(resource, outcome string) {
	if ImageUploads != nil {
		ImageUploads.WithLabelValues(resource, outcome).Inc()
	}
}

// RecordRateLimited counts a request refused by the limiter
func RecordRateLimited(route string) {
	if RateLimited != nil {
		RateLimited.WithLabelValues(route).Inc()
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// status label values
const (
	StatusSuccess    = "success"
	StatusTimeout    = "timeout"
	StatusUnexpected = "unexpected"
)

// bind attempt results
const (
	BindBound = "bound"
	BindInUse = "in_use"
	BindError = "error"
)

var (
	// lock acquisition latency including retry delays
	// labels: lock_name (to see which locks are contended)
	LockAcquireDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "padlock_acquire_duration_seconds",
			Help:    "time taken to acquire a lock, retries included",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us to ~26s
		},
		[]string{"lock_name"},
	)

	// acquisition outcomes
	// labels: lock_name, status (success/timeout/unexpected)
	LockAcquireTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "padlock_acquire_total",
			Help: "total number of settled lock acquisitions",
		},
		[]string{"lock_name", "status"},
	)

	// release outcomes, only counts releases that reached the registry
	// labels: lock_name, status (success/unexpected)
	LockReleaseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "padlock_release_total",
			Help: "total number of lock releases",
		},
		[]string{"lock_name", "status"},
	)

	// every bind attempt, a high in_use rate means heavy contention
	// labels: lock_name, result (bound/in_use/error)
	BindAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "padlock_bind_attempts_total",
			Help: "total number of abstract socket bind attempts",
		},
		[]string{"lock_name", "result"},
	)

	// names currently held by this process
	// a value that only grows points at handles that are never unlocked
	LocksHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "padlock_locks_held",
			Help: "current number of locks held by this process",
		},
	)
)

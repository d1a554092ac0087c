// Package metrics registers the Prometheus instruments for the polling
// pipeline. Call Init once at startup; helpers are nil-safe so library code
// can record without caring whether metrics are wired.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PollCycles           prometheus.Counter
	StreamsWentLive      prometheus.Counter
	StreamsWentOffline   prometheus.Counter
	OfflineJobsPublished prometheus.Counter
	OfflineJobsProcessed prometheus.Counter
	OfflineJobsFailed    prometheus.Counter

	// Per-platform API error counter
	PlatformErrors *prometheus.CounterVec

	// Histograms (seconds)
	PollDuration prometheus.Observer

	// Gauges
	ActiveAnnouncements prometheus.Gauge
	TrackedStreamers    prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollCycles = promauto.NewCounter(prometheus.CounterOpts{
			Name: "announcer_poll_cycles_total",
			Help: "Number of completed stream poll cycles",
		})
		StreamsWentLive = promauto.NewCounter(prometheus.CounterOpts{
			Name: "announcer_streams_went_live_total",
			Help: "Number of offline-to-live transitions observed",
		})
		StreamsWentOffline = promauto.NewCounter(prometheus.CounterOpts{
			Name: "announcer_streams_went_offline_total",
			Help: "Number of live-to-offline transitions observed",
		})
		OfflineJobsPublished = promauto.NewCounter(prometheus.CounterOpts{
			Name: "announcer_offline_jobs_published_total",
			Help: "Number of offline jobs published to the queue",
		})
		OfflineJobsProcessed = promauto.NewCounter(prometheus.CounterOpts{
			Name: "announcer_offline_jobs_processed_total",
			Help: "Number of offline jobs processed",
		})
		OfflineJobsFailed = promauto.NewCounter(prometheus.CounterOpts{
			Name: "announcer_offline_jobs_failed_total",
			Help: "Number of offline jobs that failed processing",
		})
		PlatformErrors = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "announcer_platform_errors_total",
			Help: "Number of streaming platform API errors",
		}, []string{"platform"})
		PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "announcer_poll_duration_seconds",
			Help:    "Stream poll cycle duration seconds",
			Buckets: prometheus.DefBuckets,
		})
		ActiveAnnouncements = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "announcer_active_announcements",
			Help: "Current number of live announcement messages",
		})
		TrackedStreamers = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "announcer_tracked_streamers",
			Help: "Current number of streamers with at least one subscription",
		})
	})
}

// Inc bumps a counter if it has been registered.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// RecordPlatformError bumps the error counter for a platform.
func RecordPlatformError(platform string) {
	if PlatformErrors != nil {
		PlatformErrors.WithLabelValues(platform).Inc()
	}
}

// SetActiveAnnouncements records the current live announcement count.
func SetActiveAnnouncements(n int) {
	if ActiveAnnouncements != nil {
		ActiveAnnouncements.Set(float64(n))
	}
}

// SetTrackedStreamers records the current subscribed streamer count.
func SetTrackedStreamers(n int) {
	if TrackedStreamers != nil {
		TrackedStreamers.Set(float64(n))
	}
}

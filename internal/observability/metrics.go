package observability

import (
	"math"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons for lifecycle messages.
const (
	DropProtocolRange   = "protocol_range"
	DropFormat          = "format"
	DropDuplicate       = "duplicate"
	DropInvalidIdentity = "invalid_identity"
	DropUnauthorized    = "unauthorized"
)

var (
	registerOnce sync.Once

	lifecycleHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simwire",
			Subsystem: "lifecycle",
			Name:      "handled_total",
			Help:      "Lifecycle messages dispatched, by route.",
		},
		[]string{"route"},
	)
	lifecycleDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simwire",
			Subsystem: "lifecycle",
			Name:      "dropped_total",
			Help:      "Lifecycle messages dropped, by reason.",
		},
		[]string{"reason"},
	)
	channelConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "simwire",
			Subsystem: "directory",
			Name:      "channel_conflicts_total",
			Help:      "Channel creations rejected for conflicting distribution declarations.",
		},
	)
	clockCorrections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simwire",
			Subsystem: "clock",
			Name:      "corrections_total",
			Help:      "Peer clock corrections, by mode.",
		},
		[]string{"mode"},
	)
	clockDelta = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "simwire",
			Subsystem: "clock",
			Name:      "delta_ticks",
			Help:      "Absolute peer clock delta observed before correction, in ticks.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(lifecycleHandled, lifecycleDropped, channelConflicts, clockCorrections, clockDelta)
	})
}

func RecordLifecycleHandled(route string) {
	RegisterMetrics()
	lifecycleHandled.WithLabelValues(route).Inc()
}

func RecordLifecycleDropped(reason string) {
	RegisterMetrics()
	lifecycleDropped.WithLabelValues(reason).Inc()
}

func RecordChannelConflict() {
	RegisterMetrics()
	channelConflicts.Inc()
}

func RecordClockCorrection(mode string, delta int32) {
	RegisterMetrics()
	clockCorrections.WithLabelValues(mode).Inc()
	clockDelta.Observe(math.Abs(float64(delta)))
}

// Handler serves the registered collectors in the Prometheus text format.
func Handler() http.Handler {
	RegisterMetrics()
	return RequestLogger(Component("metrics"), promhttp.Handler())
}

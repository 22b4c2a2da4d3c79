// Package metrics defines the Recorder interface the core pipeline consumes
// and a Prometheus-backed implementation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the metrics surface consumed by every pipeline stage.
type Recorder interface {
	ObservePreload(d time.Duration)
	ObserveProcessing(d time.Duration)
	ObservePublish(d time.Duration)

	CacheHit(cacheName string)
	CacheMiss(cacheName string)

	EventSkipped(reason string)
	OrderSucceeded()
	OrderFailed(exceptionType string)
	PublishFailed(target string)
}

// Prometheus is the production Recorder, registering its series against the
// provided registerer (grounded on nhiwentwest-local-recovery-and-partial-snapshot's
// use of prometheus/client_golang).
type Prometheus struct {
	preloadTimer    prometheus.Histogram
	processingTimer prometheus.Histogram
	publishTimer    prometheus.Histogram

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	eventsSkipped *prometheus.CounterVec
	ordersOK      prometheus.Counter
	ordersFailed  *prometheus.CounterVec
	publishFailed *prometheus.CounterVec
}

// NewPrometheus registers all series on reg and returns the Recorder.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		preloadTimer: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "pipeline_preload_duration_seconds",
			Help: "Time spent preloading reference data for one batch.",
		}),
		processingTimer: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "pipeline_processing_duration_seconds",
			Help: "Time spent transforming one batch of orders.",
		}),
		publishTimer: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "pipeline_publish_duration_seconds",
			Help: "Time spent publishing one batch of results.",
		}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_cache_hits_total",
			Help: "Cache hits by cache name.",
		}, []string{"cache"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_cache_misses_total",
			Help: "Cache misses by cache name.",
		}, []string{"cache"}),
		eventsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_events_skipped_total",
			Help: "Events skipped before processing, by reason.",
		}, []string{"reason"}),
		ordersOK: factory.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_orders_succeeded_total",
			Help: "Orders successfully transformed.",
		}),
		ordersFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_orders_failed_total",
			Help: "Orders that failed transform, by exception type.",
		}, []string{"type"}),
		publishFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_publish_failed_total",
			Help: "Publish failures by target.",
		}, []string{"target"}),
	}
}

func (p *Prometheus) ObservePreload(d time.Duration)    { p.preloadTimer.Observe(d.Seconds()) }
func (p *Prometheus) ObserveProcessing(d time.Duration) { p.processingTimer.Observe(d.Seconds()) }
func (p *Prometheus) ObservePublish(d time.Duration)    { p.publishTimer.Observe(d.Seconds()) }

func (p *Prometheus) CacheHit(name string)  { p.cacheHits.WithLabelValues(name).Inc() }
func (p *Prometheus) CacheMiss(name string) { p.cacheMisses.WithLabelValues(name).Inc() }

func (p *Prometheus) EventSkipped(reason string)          { p.eventsSkipped.WithLabelValues(reason).Inc() }
func (p *Prometheus) OrderSucceeded()                     { p.ordersOK.Inc() }
func (p *Prometheus) OrderFailed(exceptionType string)    { p.ordersFailed.WithLabelValues(exceptionType).Inc() }
func (p *Prometheus) PublishFailed(target string)         { p.publishFailed.WithLabelValues(target).Inc() }

// Noop is a Recorder that discards everything; useful for tests.
type Noop struct{}

func (Noop) ObservePreload(time.Duration)    {}
func (Noop) ObserveProcessing(time.Duration) {}
func (Noop) ObservePublish(time.Duration)    {}
func (Noop) CacheHit(string)                 {}
func (Noop) CacheMiss(string)                {}
func (Noop) EventSkipped(string)             {}
func (Noop) OrderSucceeded()                 {}
func (Noop) OrderFailed(string)              {}
func (Noop) PublishFailed(string)            {}

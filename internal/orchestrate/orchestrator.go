// Package orchestrate composes Preloader → Transformer → Publisher for one
// batch of orders, timing each stage.
package orchestrate

import (
	"time"

	"github.com/kafkaorders/pipeline/internal/domain"
	"github.com/kafkaorders/pipeline/internal/metrics"
	"github.com/kafkaorders/pipeline/internal/preload"
	"github.com/kafkaorders/pipeline/internal/publish"
	"github.com/kafkaorders/pipeline/internal/trace"
	"github.com/kafkaorders/pipeline/internal/transform"
)

// Preloader is the subset of preload.DataPreloader / preload.CachingPreloader
// the Orchestrator depends on.
type Preloader interface {
	Preload(ids []string) (preload.ProcessingContext, error)
}

// Orchestrator composes the three core stages for one batch of orders.
type Orchestrator struct {
	preloader   Preloader
	transformer *transform.BusinessTransformer
	publisher   *publish.Publisher
	recorder    metrics.Recorder
}

func NewOrchestrator(preloader Preloader, transformer *transform.BusinessTransformer, publisher *publish.Publisher, recorder metrics.Recorder) *Orchestrator {
	return &Orchestrator{preloader: preloader, transformer: transformer, publisher: publisher, recorder: recorder}
}

// Run preloads reference data, transforms and prices each order, and
// publishes the successes, recording per-stage timings throughout.
func (o *Orchestrator) Run(orders []domain.Order, useGrouping bool, traceCtx trace.Context) (domain.Result, error) {
	start := time.Now()

	if len(orders) == 0 {
		return domain.Result{}, nil
	}

	ids := make([]string, len(orders))
	for i, ord := range orders {
		ids[i] = ord.ID
	}

	preloadStart := time.Now()
	ctx, err := o.preloader.Preload(ids)
	preloadMs := time.Since(preloadStart).Milliseconds()
	o.recorder.ObservePreload(time.Since(preloadStart))
	if err != nil {
		return domain.Result{}, err
	}

	processingStart := time.Now()
	successes, failures := o.transformer.ProcessOrders(orders, ctx, traceCtx.TraceID)
	processingMs := time.Since(processingStart).Milliseconds()
	o.recorder.ObserveProcessing(time.Since(processingStart))
	for range successes {
		o.recorder.OrderSucceeded()
	}
	for _, f := range failures {
		o.recorder.OrderFailed(f.ExceptionType)
	}

	publishStart := time.Now()
	o.publisher.Publish(successes, useGrouping, traceCtx)
	publishMs := time.Since(publishStart).Milliseconds()
	o.recorder.ObservePublish(time.Since(publishStart))

	return domain.Result{
		Successes: successes,
		Failures:  failures,
		Timings: domain.Timings{
			PreloadMs:    preloadMs,
			ProcessingMs: processingMs,
			PublishMs:    publishMs,
			TotalMs:      time.Since(start).Milliseconds(),
		},
	}, nil
}

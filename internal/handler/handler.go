// Package handler implements the per-event state machine (dedup → validate
// → fetch → orchestrate → dead-letter → commit), wired to a
// segmentio/kafka-go consumer group with manual offset commit.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kafkaorders/pipeline/internal/cache"
	"github.com/kafkaorders/pipeline/internal/domain"
	"github.com/kafkaorders/pipeline/internal/metrics"
	"github.com/kafkaorders/pipeline/internal/ordersource"
	"github.com/kafkaorders/pipeline/internal/orchestrate"
	"github.com/kafkaorders/pipeline/internal/publish"
	"github.com/kafkaorders/pipeline/internal/trace"
	"github.com/kafkaorders/pipeline/internal/validate"
)

// EventHandler owns one Kafka reader and drives the full per-event state
// machine, committing offsets manually only when it is safe to do so.
type EventHandler struct {
	reader       *kafkago.Reader
	dedup        *cache.DedupService
	validator    *validate.PartnerValidator
	source       ordersource.Source
	orchestrator *orchestrate.Orchestrator
	deadLetter   publish.DeadLetterPublisher
	useGrouping  bool
	recorder     metrics.Recorder
	kpiPublisher *metrics.KPIPublisher
}

func NewEventHandler(
	reader *kafkago.Reader,
	dedup *cache.DedupService,
	validator *validate.PartnerValidator,
	source ordersource.Source,
	orchestrator *orchestrate.Orchestrator,
	deadLetter publish.DeadLetterPublisher,
	useGrouping bool,
	recorder metrics.Recorder,
	kpiPublisher *metrics.KPIPublisher,
) *EventHandler {
	return &EventHandler{
		reader:       reader,
		dedup:        dedup,
		validator:    validator,
		source:       source,
		orchestrator: orchestrator,
		deadLetter:   deadLetter,
		useGrouping:  useGrouping,
		recorder:     recorder,
		kpiPublisher: kpiPublisher,
	}
}

// Run loops reading and processing messages until ctx is cancelled.
func (h *EventHandler) Run(ctx context.Context) error {
	log.Println("handler: starting event loop")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := h.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			log.Printf("handler: failed to fetch message: %v", err)
			time.Sleep(time.Second)
			continue
		}

		if err := h.handleOne(ctx, msg); err != nil {
			log.Printf("handler: event at offset %d failed, skipping commit for redelivery: %v", msg.Offset, err)
			continue
		}

		if err := h.reader.CommitMessages(ctx, msg); err != nil {
			log.Printf("handler: failed to commit offset %d: %v", msg.Offset, err)
		}
	}
}

// handleOne runs the state machine for a single message. A non-nil return
// means the VALIDATE lookup, FETCH, ORCHESTRATE, or DEAD_LETTER failed
// fatally — the caller must not commit.
func (h *EventHandler) handleOne(ctx context.Context, msg kafkago.Message) error {
	traceCtx := trace.New()

	var event domain.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// A malformed event can never be processed; commit so the broker
		// doesn't redeliver it forever.
		log.Printf("handler[%s]: discarding unparseable message at offset %d: %v", traceCtx.TraceID, msg.Offset, err)
		return nil
	}

	// DEDUP_CHECK
	if !h.dedup.TryAcquire(event) {
		log.Printf("handler[%s]: duplicate event %s for scope %s, committing without reprocessing", traceCtx.TraceID, event.EventID, event.DedupKey())
		return nil
	}

	// VALIDATE
	decision, err := h.validator.ValidateEvent(event)
	if err != nil {
		return err
	}
	if !decision.Process {
		log.Printf("handler[%s]: skipping event %s: %s", traceCtx.TraceID, event.EventID, decision.Reason)
		h.recorder.EventSkipped(decision.Reason)
		return nil
	}

	// FETCH
	orders, err := h.source.FetchOrdersForEvent(ctx, event)
	if err != nil {
		return &domain.FetchError{Scope: event.DedupKey(), Err: err}
	}
	if len(orders) == 0 {
		log.Printf("handler[%s]: no pending orders for scope %s", traceCtx.TraceID, event.DedupKey())
		return nil
	}

	// ORCHESTRATE
	result, err := h.orchestrator.Run(orders, h.useGrouping && event.IsGrouped(), traceCtx)
	if err != nil {
		return err
	}

	// DEAD_LETTER
	if len(result.Failures) > 0 {
		if err := h.deadLetter.Publish(result.Failures); err != nil {
			return err
		}
	}

	if h.kpiPublisher != nil {
		h.kpiPublisher.RecordRun(result.Timings.TotalMs, len(result.Failures) > 0)
	}

	// Best-effort; not on the commit critical path.
	go func() {
		if err := h.source.BatchUpdateOrderStatus(context.Background(), successIDs(result.Successes), "PROCESSED"); err != nil {
			log.Printf("handler[%s]: batch status update failed: %v", traceCtx.TraceID, err)
		}
	}()

	log.Printf("handler[%s]: processed scope %s: %d succeeded, %d failed, total %dms",
		traceCtx.TraceID, event.DedupKey(), len(result.Successes), len(result.Failures), result.Timings.TotalMs)

	return nil
}

func successIDs(orders []domain.ProcessedOrder) []string {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
	}
	return ids
}

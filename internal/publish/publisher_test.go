package publish

import (
	"sync/atomic"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kafkaorders/pipeline/internal/domain"
	"github.com/kafkaorders/pipeline/internal/metrics"
	"github.com/kafkaorders/pipeline/internal/trace"
)

type countingQueue struct {
	calls int32
}

func (q *countingQueue) Publish(queueName string, body []byte, headers amqp.Table) error {
	atomic.AddInt32(&q.calls, 1)
	return nil
}

func TestPublishEmptyInputIsNoOp(t *testing.T) {
	q := &countingQueue{}
	p := NewPublisher(q, "out", 5, nil, metrics.Noop{})

	p.Publish(nil, false, trace.New())

	if q.calls != 0 {
		t.Fatalf("expected zero publish calls for empty input, got %d", q.calls)
	}
}

func TestPublishIndividualSendsOneMessagePerOrder(t *testing.T) {
	q := &countingQueue{}
	p := NewPublisher(q, "out", 5, nil, metrics.Noop{})

	orders := []domain.ProcessedOrder{{OrderID: "O1"}, {OrderID: "O2"}, {OrderID: "O3"}}
	p.Publish(orders, false, trace.New())

	if q.calls != 3 {
		t.Fatalf("expected 3 publish calls, got %d", q.calls)
	}
}

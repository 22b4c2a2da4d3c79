// Package publish delivers grouped or individual results to the downstream
// queue, best-effort and under a bounded-concurrency permit pool.
package publish

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kafkaorders/pipeline/internal/domain"
	"github.com/kafkaorders/pipeline/internal/group"
	"github.com/kafkaorders/pipeline/internal/metrics"
	"github.com/kafkaorders/pipeline/internal/trace"
)

// Queue is the downstream destination this package publishes to.
type Queue interface {
	Publish(queue string, body []byte, headers amqp.Table) error
}

// AMQPQueue is the production Queue, a thin wrapper over one channel.
type AMQPQueue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// NewAMQPQueue dials url, declares queue durable, and returns a ready Queue.
func NewAMQPQueue(url, queueName string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("publish: failed to connect to queue broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("publish: failed to open channel: %w", err)
	}
	if _, err := channel.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("publish: failed to declare queue: %w", err)
	}
	log.Printf("publish: connected to queue broker, declared queue %s", queueName)
	return &AMQPQueue{conn: conn, channel: channel, queue: queueName}, nil
}

func (q *AMQPQueue) Publish(queueName string, body []byte, headers amqp.Table) error {
	return q.channel.Publish("", queueName, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Headers:     headers,
	})
}

func (q *AMQPQueue) Close() {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
}

// Publisher fans published messages out over a bounded permit pool,
// independent of the transformer's own concurrency gate.
type Publisher struct {
	queue     Queue
	queueName string
	permits   chan struct{}
	grouper   *group.Grouper
	recorder  metrics.Recorder
}

func NewPublisher(queue Queue, queueName string, concurrency int, grouper *group.Grouper, recorder metrics.Recorder) *Publisher {
	if concurrency <= 0 {
		concurrency = 50
	}
	return &Publisher{queue: queue, queueName: queueName, permits: make(chan struct{}, concurrency), grouper: grouper, recorder: recorder}
}

// Publish sends successes to the queue, grouped or individually. An empty
// input is a no-op: zero messages sent, zero permits taken.
func (p *Publisher) Publish(successes []domain.ProcessedOrder, useGrouping bool, traceCtx trace.Context) {
	if len(successes) == 0 {
		return
	}

	var groups []domain.GroupedMessage
	individuals := successes
	if useGrouping && p.grouper != nil {
		groups, individuals = p.grouper.Group(successes, traceCtx.TraceID)
	}

	var wg sync.WaitGroup
	wg.Add(len(groups) + len(individuals))

	for _, g := range groups {
		g := g
		go func() {
			defer wg.Done()
			p.permits <- struct{}{}
			defer func() { <-p.permits }()
			p.publishOne(g, traceCtx)
		}()
	}
	for _, o := range individuals {
		o := o
		go func() {
			defer wg.Done()
			p.permits <- struct{}{}
			defer func() { <-p.permits }()
			p.publishOne(o, traceCtx)
		}()
	}
	wg.Wait()
}

// publishOne serializes v to JSON (ISO-8601 timestamps — time.Time marshals
// that way by default) and publishes it. Failures are counted and logged,
// never returned: a publish failure must not fail the batch.
func (p *Publisher) publishOne(v interface{}, traceCtx trace.Context) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("publish: failed to serialize message: %v", err)
		p.recorder.PublishFailed(p.queueName)
		return
	}

	headers := amqp.Table{trace.HeaderTraceID: traceCtx.TraceID}
	if err := p.queue.Publish(p.queueName, body, headers); err != nil {
		log.Printf("publish: failed to publish message: %v", err)
		p.recorder.PublishFailed(p.queueName)
		return
	}
}

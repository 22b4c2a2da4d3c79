package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kafkaorders/pipeline/internal/domain"
)

// dlqEvent is the wire shape written to the dead-letter topic for one
// failed order.
type dlqEvent struct {
	EventType     string    `json:"eventType"`
	Timestamp     string    `json:"timestamp"`
	OrderID       string    `json:"orderId"`
	ErrorMessage  string    `json:"error"`
	ExceptionType string    `json:"exceptionType"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// DeadLetterPublisher handles per-order transform failures, independent
// from the best-effort successes publisher.
type DeadLetterPublisher interface {
	Publish(failures []domain.FailedOrder) error
}

// LoggingDeadLetterPublisher logs each failure; used when no dead-letter
// topic is configured.
type LoggingDeadLetterPublisher struct{}

func (LoggingDeadLetterPublisher) Publish(failures []domain.FailedOrder) error {
	for _, f := range failures {
		log.Printf("dead-letter: order %s failed (%s): %s", f.Order.ID, f.ExceptionType, f.ErrorMessage)
	}
	return nil
}

// KafkaDeadLetterPublisher writes each failure to a dead-letter Kafka topic.
type KafkaDeadLetterPublisher struct {
	writer *kafkago.Writer
}

func NewKafkaDeadLetterPublisher(brokerAddress, topic string) *KafkaDeadLetterPublisher {
	return &KafkaDeadLetterPublisher{
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(brokerAddress),
			Topic:    topic,
			Balancer: &kafkago.LeastBytes{},
		},
	}
}

func (k *KafkaDeadLetterPublisher) Publish(failures []domain.FailedOrder) error {
	for _, f := range failures {
		evt := dlqEvent{
			EventType:     "TransformFailure",
			Timestamp:     time.Now().Format(time.RFC3339),
			OrderID:       f.Order.ID,
			ErrorMessage:  f.ErrorMessage,
			ExceptionType: f.ExceptionType,
			OccurredAt:    f.OccurredAt,
		}
		body, err := json.Marshal(evt)
		if err != nil {
			log.Printf("dead-letter: failed to marshal event for order %s: %v", f.Order.ID, err)
			continue
		}
		key := fmt.Sprintf("dlq-%s-%d", f.Order.ID, time.Now().UnixNano())
		if err := k.writer.WriteMessages(context.Background(), kafkago.Message{
			Key:   []byte(key),
			Value: body,
		}); err != nil {
			log.Printf("dead-letter: failed to publish for order %s: %v", f.Order.ID, err)
		}
	}
	return nil
}

func (k *KafkaDeadLetterPublisher) Close() error {
	return k.writer.Close()
}

package metrics

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

// KPIEvent is a point-in-time KPI sample, published to a Kafka topic for
// downstream dashboards.
type KPIEvent struct {
	EventType   string                 `json:"eventType"`
	Timestamp   string                 `json:"timestamp"`
	KPIName     string                 `json:"kpiName"`
	MetricName  string                 `json:"metricName"`
	MetricValue float64                `json:"metricValue"`
	ServiceName string                 `json:"serviceName"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// KPIPublisher accumulates per-event-handler latency samples and flushes
// average/max/error-rate KPIs to Kafka once per interval.
type KPIPublisher struct {
	writer *kafka.Writer

	mu        sync.Mutex
	count     int
	totalMs   float64
	maxMs     float64
	errors    int
	lastFlush time.Time

	interval time.Duration
	stop     chan struct{}
}

// NewKPIPublisher creates a publisher writing to topic on brokerAddress.
func NewKPIPublisher(brokerAddress, topic string, interval time.Duration) *KPIPublisher {
	return &KPIPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokerAddress),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		lastFlush: time.Now(),
		interval:  interval,
		stop:      make(chan struct{}),
	}
}

// RecordRun folds one event-handler run's total latency into the current
// window and, if failed is true, counts the run as one error.
func (k *KPIPublisher) RecordRun(totalMs int64, failed bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.count++
	k.totalMs += float64(totalMs)
	if float64(totalMs) > k.maxMs {
		k.maxMs = float64(totalMs)
	}
	if failed {
		k.errors++
	}
}

// Run flushes KPIs every interval until ctx is cancelled.
func (k *KPIPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-k.stop:
			return
		case <-ticker.C:
			k.flush()
		}
	}
}

// Close stops the publisher loop and its Kafka writer.
func (k *KPIPublisher) Close() error {
	close(k.stop)
	return k.writer.Close()
}

func (k *KPIPublisher) flush() {
	k.mu.Lock()
	count, totalMs, maxMs, errors := k.count, k.totalMs, k.maxMs, k.errors
	elapsed := time.Since(k.lastFlush).Minutes()
	k.count, k.totalMs, k.maxMs, k.errors = 0, 0, 0, 0
	k.lastFlush = time.Now()
	k.mu.Unlock()

	if count == 0 {
		return
	}

	avgLatencyMs := totalMs / float64(count)
	errorsPerMinute := float64(errors) / elapsed

	k.publish("PipelineLatency", "AvgLatencyMs", avgLatencyMs, map[string]interface{}{"runsProcessed": count})
	k.publish("PipelineLatency", "MaxLatencyMs", maxMs, map[string]interface{}{"runsProcessed": count})
	k.publish("PipelineErrors", "ErrorsPerMinute", errorsPerMinute, map[string]interface{}{"totalErrors": errors, "timeSpanMinutes": elapsed})
}

func (k *KPIPublisher) publish(kpiName, metricName string, value float64, metadata map[string]interface{}) {
	event := KPIEvent{
		EventType:   "KPIEvent",
		Timestamp:   time.Now().Format(time.RFC3339),
		KPIName:     kpiName,
		MetricName:  metricName,
		MetricValue: value,
		ServiceName: "order-pipeline",
		Metadata:    metadata,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("kpi publisher: marshal failed: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.writer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
		log.Printf("kpi publisher: write failed: %v", err)
	}
}

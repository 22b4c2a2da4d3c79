// Command pipeline runs the Kafka order-processing pipeline end to end:
// consumer loop, admin HTTP surface, and periodic KPI reporting.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/kafkaorders/pipeline/internal/admin"
	"github.com/kafkaorders/pipeline/internal/cache"
	"github.com/kafkaorders/pipeline/internal/config"
	"github.com/kafkaorders/pipeline/internal/domain"
	"github.com/kafkaorders/pipeline/internal/group"
	"github.com/kafkaorders/pipeline/internal/handler"
	"github.com/kafkaorders/pipeline/internal/metrics"
	"github.com/kafkaorders/pipeline/internal/orchestrate"
	"github.com/kafkaorders/pipeline/internal/ordersource"
	"github.com/kafkaorders/pipeline/internal/preload"
	"github.com/kafkaorders/pipeline/internal/publish"
	"github.com/kafkaorders/pipeline/internal/reference"
	"github.com/kafkaorders/pipeline/internal/transform"
	"github.com/kafkaorders/pipeline/internal/validate"
)

func main() {
	cfg := config.Load()

	log.Printf("starting order pipeline: broker=%s input-topic=%s", cfg.BrokerAddress, cfg.InputTopic)

	config.SetupTopics(cfg.BrokerAddress, cfg.InputTopic, cfg.DeadLetterTopic, "kpi-events")

	repo, err := reference.NewPostgresRepository(cfg.PostgresDSN, cfg.DBChunkSize, cfg.DBMaxRetries, cfg.DBRetryDelayMs)
	if err != nil {
		log.Fatalf("failed to connect to reference-data store: %v", err)
	}
	defer repo.Close()

	var source ordersource.Source
	if cfg.MongoEnabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		source = ordersource.NewRedisSource(redisClient, cfg.TopNPendingOrders)
	} else {
		log.Println("app.mongodb.enabled=false: resolving orders through an empty mock source")
		source = ordersource.NewFakeSource(nil)
	}

	recorder := metrics.NewPrometheus(prometheus.DefaultRegisterer)

	customerCache := cache.New[domain.Customer]("customer", cfg.DataCacheMaxSize, cfg.DataCacheTTL)
	inventoryCache := cache.New[domain.Inventory]("inventory", cfg.DataCacheMaxSize, cfg.DataCacheTTL)
	pricingCache := cache.New[domain.Pricing]("pricing", cfg.DataCacheMaxSize, cfg.DataCacheTTL)
	partnerCache := cache.New[domain.PartnerStatus]("partner", cfg.PartnerCacheMaxSize, cfg.PartnerCacheTTL)
	unitCache := cache.New[domain.UnitStatus]("unit", cfg.PartnerCacheMaxSize, cfg.PartnerCacheTTL)
	dedupService := cache.NewDedupService(cfg.DedupCacheMaxSize, cfg.DedupCacheTTL)

	validator := validate.NewPartnerValidator(repo, partnerCache, unitCache)
	preloader := preload.NewCachingPreloader(repo, customerCache, inventoryCache, pricingCache, recorder)
	transformer := transform.NewBusinessTransformer(cfg.ProcessingConcurrency, "order-pipeline")

	highValueThreshold, err := decimal.NewFromString(cfg.GroupingHighValueThreshold)
	if err != nil {
		log.Printf("invalid grouping high-value threshold %q, using 1000: %v", cfg.GroupingHighValueThreshold, err)
		highValueThreshold = decimal.NewFromInt(1000)
	}
	grouper := group.NewGrouper(cfg.GroupingStrategy, highValueThreshold, cfg.GroupingMinGroupSize, "order-pipeline")

	var queue publish.Queue
	if cfg.WMQEnabled {
		amqpQueue, err := publish.NewAMQPQueue(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			log.Fatalf("failed to connect to downstream queue: %v", err)
		}
		defer amqpQueue.Close()
		queue = amqpQueue
	} else {
		log.Println("app.wmq.enabled=false: publishing through a discarding mock queue")
		queue = mockQueue{}
	}
	publisher := publish.NewPublisher(queue, cfg.AMQPQueue, cfg.PublishConcurrency, grouper, recorder)

	orchestrator := orchestrate.NewOrchestrator(preloader, transformer, publisher, recorder)

	deadLetter := publish.NewKafkaDeadLetterPublisher(cfg.BrokerAddress, cfg.DeadLetterTopic)
	defer deadLetter.Close()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  []string{cfg.BrokerAddress},
		Topic:    cfg.InputTopic,
		GroupID:  "order-pipeline",
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	kpiPublisher := metrics.NewKPIPublisher(cfg.BrokerAddress, "kpi-events", time.Minute)
	defer kpiPublisher.Close()

	eventHandler := handler.NewEventHandler(reader, dedupService, validator, source, orchestrator, deadLetter, true, recorder, kpiPublisher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go kpiPublisher.Run(ctx)

	adminServer := admin.NewServer(cfg.BrokerAddress, cfg.InputTopic, dedupService)
	adminServer.RegisterCache("customer", customerCache.Stats)
	adminServer.RegisterCache("inventory", inventoryCache.Stats)
	adminServer.RegisterCache("pricing", pricingCache.Stats)
	adminServer.RegisterCache("partner", partnerCache.Stats)
	adminServer.RegisterCache("unit", unitCache.Stats)

	go func() {
		if err := adminServer.Run(cfg.AdminAddr); err != nil {
			log.Printf("admin server exited: %v", err)
		}
	}()

	if err := eventHandler.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("event handler exited: %v", err)
	}
	log.Println("order pipeline shutting down")
}

// mockQueue discards every publish; used when app.wmq.enabled=false.
type mockQueue struct{}

func (mockQueue) Publish(queue string, body []byte, headers amqp.Table) error {
	return nil
}

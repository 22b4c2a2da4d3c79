// Package admin exposes the operator-facing HTTP surface: health/readiness,
// cache stats, Prometheus exposition, and a manual event-trigger endpoint.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/kafkaorders/pipeline/internal/cache"
	"github.com/kafkaorders/pipeline/internal/domain"
)

// TriggerPayload is the manual-trigger request body, mirroring the shape
// of the real input-topic Event.
type TriggerPayload struct {
	EventID            string `json:"eventId"`
	EventType          string `json:"eventType"`
	TradingPartnerName string `json:"tradingPartnerName"`
	BusinessUnitName   string `json:"businessUnitName"`
}

// Server wires the gin router with the pipeline's health/metrics/trigger
// surface.
type Server struct {
	router        *gin.Engine
	brokerAddress string
	inputTopic    string
	writer        *kafkago.Writer

	dedupCache   *cache.DedupService
	dataCaches   []*statNamedCache
}

type statNamedCache struct {
	name  string
	stats func() cache.Stats
}

// NewServer builds the admin server. Additional caches can be registered via
// RegisterCache before Run is called.
func NewServer(brokerAddress, inputTopic string, dedupCache *cache.DedupService) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		router:        gin.New(),
		brokerAddress: brokerAddress,
		inputTopic:    inputTopic,
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(brokerAddress),
			Topic:    inputTopic,
			Balancer: &kafkago.LeastBytes{},
		},
		dedupCache: dedupCache,
	}
	s.routes()
	return s
}

// RegisterCache exposes an additional named cache's Stats() under /cache/stats.
func (s *Server) RegisterCache(name string, stats func() cache.Stats) {
	s.dataCaches = append(s.dataCaches, &statNamedCache{name: name, stats: stats})
}

func (s *Server) routes() {
	s.router.GET("/healthz", s.healthz)
	s.router.GET("/readyz", s.readyz)
	s.router.GET("/cache/stats", s.cacheStats)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.POST("/admin/trigger", s.trigger)
}

func (s *Server) healthz(c *gin.Context) {
	conn, err := kafkago.Dial("tcp", s.brokerAddress)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": err.Error()})
		return
	}
	defer conn.Close()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readyz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) cacheStats(c *gin.Context) {
	stats := gin.H{"dedup": s.dedupCache.Stats()}
	for _, nc := range s.dataCaches {
		stats[nc.name] = nc.stats()
	}
	c.JSON(http.StatusOK, stats)
}

// trigger publishes a synthetic event to the input topic, for manual
// operator-driven replay or testing.
func (s *Server) trigger(c *gin.Context) {
	var p TriggerPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid payload"})
		return
	}
	if p.EventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "eventId is required"})
		return
	}

	event := domain.Event{
		EventID:            p.EventID,
		EventType:          p.EventType,
		TradingPartnerName: p.TradingPartnerName,
		BusinessUnitName:   p.BusinessUnitName,
	}
	body, err := json.Marshal(event)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to encode event"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := s.writer.WriteMessages(ctx, kafkago.Message{Key: []byte(p.EventID), Value: body}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to publish event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "accepted", "eventId": p.EventID})
}

// Run starts the HTTP server, blocking until it exits or errs.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Package ordersource resolves the pending orders for an event's scope from
// the document store. Redis stands in for that store here, indexed by
// partner/unit scope sets alongside a per-order document.
package ordersource

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/kafkaorders/pipeline/internal/domain"
)

// TopNDefault is the fallback resolution's pending-order limit.
const TopNDefault = 100

// Source is what the rest of the pipeline depends on.
type Source interface {
	FetchOrdersForEvent(ctx context.Context, event domain.Event) ([]domain.Order, error)
	BatchUpdateOrderStatus(ctx context.Context, ids []string, status string) error
}

// RedisSource stores one document per order under key "order:<orderId>", and
// maintains three index sets for scope resolution: "scope:partner:unit:<p>:<u>",
// "scope:partner:<p>", "scope:unit:<u>" — each a set of order ids — plus
// "scope:pending" for the top-N fallback. This
// mirrors the (partner ∧ unit) → (partner) → (unit) → (top-N) fallback chain
// without requiring a real document-query engine.
type RedisSource struct {
	client *redis.Client
	topN   int
}

// NewRedisSource wraps an existing client. topN<=0 uses TopNDefault.
func NewRedisSource(client *redis.Client, topN int) *RedisSource {
	if topN <= 0 {
		topN = TopNDefault
	}
	return &RedisSource{client: client, topN: topN}
}

// FetchOrdersForEvent resolves orders by scope presence — partner+unit, then
// partner, then unit, then a top-N pending fallback — filtering every
// variant to status == PENDING.
func (s *RedisSource) FetchOrdersForEvent(ctx context.Context, event domain.Event) ([]domain.Order, error) {
	partner := event.TradingPartnerName
	unit := event.BusinessUnitName

	var ids []string
	var err error

	switch {
	case partner != "" && unit != "":
		ids, err = s.client.SMembers(ctx, scopeKey(partner, unit)).Result()
	case partner != "":
		ids, err = s.client.SMembers(ctx, partnerKey(partner)).Result()
	case unit != "":
		ids, err = s.client.SMembers(ctx, unitKey(unit)).Result()
	default:
		return s.fetchTopNPending(ctx)
	}
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("ordersource: scope lookup failed: %w", err)
	}
	return s.hydrate(ctx, ids, true)
}

func (s *RedisSource) fetchTopNPending(ctx context.Context) ([]domain.Order, error) {
	ids, err := s.client.SMembers(ctx, "scope:pending").Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("ordersource: pending index lookup failed: %w", err)
	}
	orders, err := s.hydrate(ctx, ids, true)
	if err != nil {
		return nil, err
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	if len(orders) > s.topN {
		orders = orders[:s.topN]
	}
	return orders, nil
}

// hydrate loads each order document and, if pendingOnly, drops any whose
// status isn't PENDING.
func (s *RedisSource) hydrate(ctx context.Context, ids []string, pendingOnly bool) ([]domain.Order, error) {
	var orders []domain.Order
	for _, id := range ids {
		raw, err := s.client.Get(ctx, "order:"+id).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("ordersource: fetch order %s failed: %w", id, err)
		}
		var o domain.Order
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, fmt.Errorf("ordersource: decode order %s failed: %w", id, err)
		}
		if pendingOnly && o.Status != domain.StatusPending {
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// BatchUpdateOrderStatus is best-effort and not on the commit critical path;
// callers should not await it before committing offsets.
func (s *RedisSource) BatchUpdateOrderStatus(ctx context.Context, ids []string, status string) error {
	pipe := s.client.Pipeline()
	for _, id := range ids {
		key := "order:" + id
		raw, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return fmt.Errorf("ordersource: batch status update read %s failed: %w", id, err)
		}
		var o domain.Order
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return fmt.Errorf("ordersource: batch status update decode %s failed: %w", id, err)
		}
		o.Status = status
		encoded, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("ordersource: batch status update encode %s failed: %w", id, err)
		}
		pipe.Set(ctx, key, encoded, 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func scopeKey(partner, unit string) string { return fmt.Sprintf("scope:partner:unit:%s:%s", partner, unit) }
func partnerKey(partner string) string     { return fmt.Sprintf("scope:partner:%s", partner) }
func unitKey(unit string) string           { return fmt.Sprintf("scope:unit:%s", unit) }

// Package group implements the five grouping strategies and the shared
// min-group-size merge rule for batching processed orders together before
// publish.
package group

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kafkaorders/pipeline/internal/domain"
)

const (
	StrategyByCustomer  = "BY_CUSTOMER"
	StrategyByWarehouse = "BY_WAREHOUSE"
	StrategyByTier      = "BY_TIER"
	StrategyHighValue   = "HIGH_VALUE"
	StrategyNone        = "NONE"
)

// Grouper partitions ProcessedOrders into GroupedMessages and leftover
// individuals.
type Grouper struct {
	Strategy           string
	HighValueThreshold decimal.Decimal
	MinGroupSize       int
	GroupedBy          string
}

func NewGrouper(strategy string, highValueThreshold decimal.Decimal, minGroupSize int, groupedBy string) *Grouper {
	if minGroupSize <= 0 {
		minGroupSize = 2
	}
	return &Grouper{Strategy: strategy, HighValueThreshold: highValueThreshold, MinGroupSize: minGroupSize, GroupedBy: groupedBy}
}

// Group returns the grouped messages and the individuals left ungrouped.
// |groups.flatten| + |individuals| == len(orders) always holds; no order
// appears twice.
func (g *Grouper) Group(orders []domain.ProcessedOrder, traceID string) ([]domain.GroupedMessage, []domain.ProcessedOrder) {
	switch g.Strategy {
	case StrategyByCustomer:
		return g.groupByKey(orders, "CUSTOMER", traceID, func(o domain.ProcessedOrder) string { return o.CustomerID })
	case StrategyByWarehouse:
		return g.groupByKey(orders, "WAREHOUSE", traceID, func(o domain.ProcessedOrder) string {
			if o.WarehouseLocation == "" {
				return "UNKNOWN"
			}
			return o.WarehouseLocation
		})
	case StrategyByTier:
		return g.groupByKey(orders, "TIER", traceID, func(o domain.ProcessedOrder) string {
			if o.CustomerTier == "" {
				return domain.TierStandard
			}
			return o.CustomerTier
		})
	case StrategyHighValue:
		return g.groupHighValue(orders, traceID)
	default:
		return nil, orders
	}
}

// groupByKey buckets orders by keyFn, then applies the min-group-size merge
// rule: buckets at or above MinGroupSize become one GroupedMessage each;
// smaller buckets degrade to individuals.
func (g *Grouper) groupByKey(orders []domain.ProcessedOrder, groupType, traceID string, keyFn func(domain.ProcessedOrder) string) ([]domain.GroupedMessage, []domain.ProcessedOrder) {
	buckets := make(map[string][]domain.ProcessedOrder)
	var order []string
	for _, o := range orders {
		key := keyFn(o)
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], o)
	}

	var groups []domain.GroupedMessage
	var individuals []domain.ProcessedOrder
	for _, key := range order {
		bucket := buckets[key]
		if len(bucket) >= g.MinGroupSize {
			groups = append(groups, g.buildGroup(key, groupType, bucket, traceID))
		} else {
			individuals = append(individuals, bucket...)
		}
	}
	return groups, individuals
}

// groupHighValue partitions by finalPrice >= threshold; the high half, if it
// meets MinGroupSize, becomes one HIGH_VALUE group. The low half and any
// under-sized high half degrade to individuals.
func (g *Grouper) groupHighValue(orders []domain.ProcessedOrder, traceID string) ([]domain.GroupedMessage, []domain.ProcessedOrder) {
	var high, low []domain.ProcessedOrder
	for _, o := range orders {
		if o.FinalPrice.Cmp(g.HighValueThreshold) >= 0 {
			high = append(high, o)
		} else {
			low = append(low, o)
		}
	}

	if len(high) >= g.MinGroupSize {
		return []domain.GroupedMessage{g.buildGroup("HIGH_VALUE", "HIGH_VALUE", high, traceID)}, low
	}
	return nil, append(low, high...)
}

func (g *Grouper) buildGroup(key, groupType string, orders []domain.ProcessedOrder, traceID string) domain.GroupedMessage {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.FinalPrice)
	}
	return domain.GroupedMessage{
		GroupID:     uuid.NewString(),
		GroupingKey: key,
		GroupType:   groupType,
		Orders:      orders,
		OrderCount:  len(orders),
		TotalAmount: total,
		GroupedAt:   time.Now(),
		GroupedBy:   g.GroupedBy,
		TraceID:     traceID,
	}
}

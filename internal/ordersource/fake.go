package ordersource

import (
	"context"
	"sort"
	"sync"

	"github.com/kafkaorders/pipeline/internal/domain"
)

// FakeSource is an in-memory Source for tests that needs no live Redis
// instance. It returns every PENDING order it holds, oldest first; the
// event's partner and unit do not filter the result. When the event names
// neither, the result is capped at topN.
type FakeSource struct {
	mu     sync.Mutex
	orders map[string]domain.Order
	topN   int
}

func NewFakeSource(orders []domain.Order) *FakeSource {
	m := make(map[string]domain.Order, len(orders))
	for _, o := range orders {
		m[o.ID] = o
	}
	return &FakeSource{orders: m, topN: TopNDefault}
}

func (f *FakeSource) FetchOrdersForEvent(_ context.Context, event domain.Event) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []domain.Order
	for _, o := range f.orders {
		if o.Status != domain.StatusPending {
			continue
		}
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if event.TradingPartnerName == "" && event.BusinessUnitName == "" && len(result) > f.topN {
		result = result[:f.topN]
	}
	return result, nil
}

func (f *FakeSource) BatchUpdateOrderStatus(_ context.Context, ids []string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if o, ok := f.orders[id]; ok {
			o.Status = status
			f.orders[id] = o
		}
	}
	return nil
}

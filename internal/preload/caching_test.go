package preload

import (
	"testing"
	"time"

	"github.com/kafkaorders/pipeline/internal/cache"
	"github.com/kafkaorders/pipeline/internal/domain"
	"github.com/kafkaorders/pipeline/internal/metrics"
)

type recordingRepo struct {
	customerCalls [][]string
	customers     map[string]domain.Customer
}

func (r *recordingRepo) FindOrdersByIds(ids []string) ([]domain.Order, error) { return nil, nil }
func (r *recordingRepo) BatchFetchCustomerData(ids []string) (map[string]domain.Customer, error) {
	r.customerCalls = append(r.customerCalls, ids)
	result := make(map[string]domain.Customer)
	for _, id := range ids {
		if c, ok := r.customers[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}
func (r *recordingRepo) BatchFetchInventoryData(ids []string) (map[string]domain.Inventory, error) {
	return map[string]domain.Inventory{}, nil
}
func (r *recordingRepo) BatchFetchPricingData(ids []string) (map[string]domain.Pricing, error) {
	return map[string]domain.Pricing{}, nil
}
func (r *recordingRepo) FindTradingPartnerByName(name string) (*domain.PartnerStatus, error) {
	return nil, nil
}
func (r *recordingRepo) FindBusinessUnitByName(name string) (*domain.UnitStatus, error) {
	return nil, nil
}

func TestCachingPreloaderOnlyFetchesMisses(t *testing.T) {
	repo := &recordingRepo{customers: map[string]domain.Customer{
		"O1": {CustomerID: "C1"},
		"O2": {CustomerID: "C2"},
	}}
	customerCache := cache.New[domain.Customer]("customer", 100, time.Minute)
	inventoryCache := cache.New[domain.Inventory]("inventory", 100, time.Minute)
	pricingCache := cache.New[domain.Pricing]("pricing", 100, time.Minute)

	p := NewCachingPreloader(repo, customerCache, inventoryCache, pricingCache, metrics.Noop{})

	if _, err := p.Preload([]string{"O1", "O2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.customerCalls) != 1 || len(repo.customerCalls[0]) != 2 {
		t.Fatalf("expected one call fetching both misses, got %v", repo.customerCalls)
	}

	// O1 is now cached; a second preload for O1+O3 should only miss O3.
	if _, err := p.Preload([]string{"O1", "O3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.customerCalls) != 2 {
		t.Fatalf("expected a second repository call, got %d total calls", len(repo.customerCalls))
	}
	if got := repo.customerCalls[1]; len(got) != 1 || got[0] != "O3" {
		t.Fatalf("expected second call to fetch only the miss ['O3'], got %v", got)
	}
}

func TestCachingPreloaderEmptyMissShortCircuits(t *testing.T) {
	repo := &recordingRepo{customers: map[string]domain.Customer{"O1": {CustomerID: "C1"}}}
	customerCache := cache.New[domain.Customer]("customer", 100, time.Minute)
	inventoryCache := cache.New[domain.Inventory]("inventory", 100, time.Minute)
	pricingCache := cache.New[domain.Pricing]("pricing", 100, time.Minute)

	p := NewCachingPreloader(repo, customerCache, inventoryCache, pricingCache, metrics.Noop{})

	if _, err := p.Preload([]string{"O1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Preload([]string{"O1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.customerCalls) != 1 {
		t.Fatalf("expected only 1 repository call; the second preload should short-circuit on an all-hit set, got %d", len(repo.customerCalls))
	}
}

package preload

import (
	"sync"

	"github.com/kafkaorders/pipeline/internal/cache"
	"github.com/kafkaorders/pipeline/internal/domain"
	"github.com/kafkaorders/pipeline/internal/metrics"
	"github.com/kafkaorders/pipeline/internal/reference"
)

// CachingPreloader wraps a Repository with three data caches: for each data
// type it splits the requested ids into (hit, miss), fetches only the miss
// set from the repository, writes the fetched values back into the cache,
// and merges hit+fetched. Empty miss sets short-circuit the repository call
// entirely.
type CachingPreloader struct {
	repo      reference.Repository
	customers *cache.TTLCache[domain.Customer]
	inventory *cache.TTLCache[domain.Inventory]
	pricing   *cache.TTLCache[domain.Pricing]
	recorder  metrics.Recorder
}

func NewCachingPreloader(repo reference.Repository, customers *cache.TTLCache[domain.Customer], inventory *cache.TTLCache[domain.Inventory], pricing *cache.TTLCache[domain.Pricing], recorder metrics.Recorder) *CachingPreloader {
	return &CachingPreloader{repo: repo, customers: customers, inventory: inventory, pricing: pricing, recorder: recorder}
}

func (p *CachingPreloader) Preload(ids []string) (ProcessingContext, error) {
	var (
		wg                                     sync.WaitGroup
		customers                               map[string]domain.Customer
		inventory                               map[string]domain.Inventory
		pricing                                 map[string]domain.Pricing
		customerErr, inventoryErr, pricingErr   error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		customers, customerErr = p.loadCustomers(ids)
	}()
	go func() {
		defer wg.Done()
		inventory, inventoryErr = p.loadInventory(ids)
	}()
	go func() {
		defer wg.Done()
		pricing, pricingErr = p.loadPricing(ids)
	}()
	wg.Wait()

	if customerErr != nil {
		return ProcessingContext{}, customerErr
	}
	if inventoryErr != nil {
		return ProcessingContext{}, inventoryErr
	}
	if pricingErr != nil {
		return ProcessingContext{}, pricingErr
	}

	return ProcessingContext{Customers: customers, Inventory: inventory, Pricing: pricing}, nil
}

func (p *CachingPreloader) loadCustomers(ids []string) (map[string]domain.Customer, error) {
	result := make(map[string]domain.Customer, len(ids))
	var miss []string
	for _, id := range ids {
		if v, ok := p.customers.Get(id); ok {
			p.recorder.CacheHit("customer")
			result[id] = v
		} else {
			p.recorder.CacheMiss("customer")
			miss = append(miss, id)
		}
	}
	if len(miss) == 0 {
		return result, nil
	}
	fetched, err := p.repo.BatchFetchCustomerData(miss)
	if err != nil {
		return nil, err
	}
	for id, v := range fetched {
		p.customers.Put(id, v)
		result[id] = v
	}
	return result, nil
}

func (p *CachingPreloader) loadInventory(ids []string) (map[string]domain.Inventory, error) {
	result := make(map[string]domain.Inventory, len(ids))
	var miss []string
	for _, id := range ids {
		if v, ok := p.inventory.Get(id); ok {
			p.recorder.CacheHit("inventory")
			result[id] = v
		} else {
			p.recorder.CacheMiss("inventory")
			miss = append(miss, id)
		}
	}
	if len(miss) == 0 {
		return result, nil
	}
	fetched, err := p.repo.BatchFetchInventoryData(miss)
	if err != nil {
		return nil, err
	}
	for id, v := range fetched {
		p.inventory.Put(id, v)
		result[id] = v
	}
	return result, nil
}

func (p *CachingPreloader) loadPricing(ids []string) (map[string]domain.Pricing, error) {
	result := make(map[string]domain.Pricing, len(ids))
	var miss []string
	for _, id := range ids {
		if v, ok := p.pricing.Get(id); ok {
			p.recorder.CacheHit("pricing")
			result[id] = v
		} else {
			p.recorder.CacheMiss("pricing")
			miss = append(miss, id)
		}
	}
	if len(miss) == 0 {
		return result, nil
	}
	fetched, err := p.repo.BatchFetchPricingData(miss)
	if err != nil {
		return nil, err
	}
	for id, v := range fetched {
		p.pricing.Put(id, v)
		result[id] = v
	}
	return result, nil
}

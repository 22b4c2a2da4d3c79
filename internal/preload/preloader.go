// Package preload implements the three-way parallel reference-data fetch
// (customer/inventory/pricing) and its optional cache-aside wrapper.
// Fan-out uses raw goroutines + sync.WaitGroup rather than an errgroup.
package preload

import (
	"sync"

	"github.com/kafkaorders/pipeline/internal/domain"
	"github.com/kafkaorders/pipeline/internal/reference"
)

// ProcessingContext is the three reference-data mappings the transformer
// consumes, keyed by order id.
type ProcessingContext struct {
	Customers  map[string]domain.Customer
	Inventory  map[string]domain.Inventory
	Pricing    map[string]domain.Pricing
}

// DataPreloader runs the three repository reads concurrently and joins them.
type DataPreloader struct {
	repo reference.Repository
}

func NewDataPreloader(repo reference.Repository) *DataPreloader {
	return &DataPreloader{repo: repo}
}

// Preload implements preload(orderIds, executor) → ProcessingContext. All
// three sibling fetches run concurrently; the call returns only after all
// three complete, propagating the first error encountered (all-or-error).
func (p *DataPreloader) Preload(ids []string) (ProcessingContext, error) {
	var (
		wg                          sync.WaitGroup
		customers                   map[string]domain.Customer
		inventory                   map[string]domain.Inventory
		pricing                     map[string]domain.Pricing
		customerErr, inventoryErr, pricingErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		customers, customerErr = p.repo.BatchFetchCustomerData(ids)
	}()
	go func() {
		defer wg.Done()
		inventory, inventoryErr = p.repo.BatchFetchInventoryData(ids)
	}()
	go func() {
		defer wg.Done()
		pricing, pricingErr = p.repo.BatchFetchPricingData(ids)
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

// Package transform computes per-order pricing and shipping status, fanned
// out under a bounded concurrency gate implemented as a buffered channel of
// empty structs.
package transform

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kafkaorders/pipeline/internal/domain"
	"github.com/kafkaorders/pipeline/internal/preload"
)

var (
	tierBonusGold    = decimal.NewFromFloat(0.10)
	tierBonusPremium = decimal.NewFromFloat(0.05)
	tierBonusNone    = decimal.Zero
	one              = decimal.NewFromInt(1)
)

// BusinessTransformer computes pricing and shipping status for each order
// concurrently, bounded by a single permit pool.
type BusinessTransformer struct {
	permits     chan struct{}
	processedBy string
}

// NewBusinessTransformer builds a transformer gated at capacity concurrency
// permits. processedBy labels every ProcessedOrder with the service
// identity that produced it.
func NewBusinessTransformer(concurrency int, processedBy string) *BusinessTransformer {
	if concurrency <= 0 {
		concurrency = 100
	}
	return &BusinessTransformer{permits: make(chan struct{}, concurrency), processedBy: processedBy}
}

// ProcessOrders implements processOrders(orders, ctx, executor) → (successes,
// failures). Every order gets its own goroutine, gated by the permit
// channel; a panic recovered mid-transform becomes a FailedOrder rather than
// crashing the batch.
func (t *BusinessTransformer) ProcessOrders(orders []domain.Order, ctx preload.ProcessingContext, traceID string) ([]domain.ProcessedOrder, []domain.FailedOrder) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes []domain.ProcessedOrder
		failures  []domain.FailedOrder
	)

	wg.Add(len(orders))
	for _, order := range orders {
		order := order
		go func() {
			defer wg.Done()

			t.permits <- struct{}{}
			defer func() { <-t.permits }()

			po, fo := t.transformOne(order, ctx, traceID)

			mu.Lock()
			defer mu.Unlock()
			if fo != nil {
				failures = append(failures, *fo)
			} else {
				successes = append(successes, *po)
			}
		}()
	}
	wg.Wait()

	return successes, failures
}

func (t *BusinessTransformer) transformOne(order domain.Order, pc preload.ProcessingContext, traceID string) (po *domain.ProcessedOrder, fo *domain.FailedOrder) {
	defer func() {
		if r := recover(); r != nil {
			fo = &domain.FailedOrder{
				Order:         order,
				ErrorMessage:  fmt.Sprintf("panic during transform: %v", r),
				ExceptionType: "TransformError",
				OccurredAt:    time.Now(),
			}
			po = nil
		}
	}()

	customer, hasCustomer := pc.Customers[order.ID]
	inventory, hasInventory := pc.Inventory[order.ID]
	pricing, hasPricing := pc.Pricing[order.ID]

	finalPrice := decimal.Zero
	if hasPricing {
		discountEffective := pricing.Discount.Add(tierBonus(customer.Tier))
		finalPrice = pricing.BasePrice.
			Mul(one.Sub(discountEffective)).
			Mul(one.Add(pricing.TaxRate)).
			Round(2)
	}

	status := domain.StatusPendingInventory
	if hasInventory {
		switch {
		case inventory.QuantityAvailable > 10:
			status = domain.StatusReadyToShip
		case inventory.QuantityAvailable > 0:
			status = domain.StatusLowStock
		default:
			status = domain.StatusBackorder
		}
	}

	customerName := "Unknown"
	customerTier := domain.TierStandard
	if hasCustomer {
		customerName = customer.Name
		customerTier = customer.Tier
	}

	warehouse := ""
	if hasInventory {
		warehouse = inventory.WarehouseLocation
	}

	return &domain.ProcessedOrder{
		OrderID:           order.ID,
		CustomerID:        order.CustomerID,
		CustomerName:      customerName,
		CustomerTier:      customerTier,
		FinalPrice:        finalPrice,
		WarehouseLocation: warehouse,
		Status:            status,
		ProcessedAt:        time.Now(),
		ProcessedBy:        t.processedBy,
		TraceID:            traceID,
	}, nil
}

func tierBonus(tier string) decimal.Decimal {
	switch tier {
	case domain.TierGold:
		return tierBonusGold
	case domain.TierPremium:
		return tierBonusPremium
	default:
		return tierBonusNone
	}
}

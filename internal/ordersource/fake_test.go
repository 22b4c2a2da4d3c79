package ordersource

import (
	"context"
	"testing"
	"time"

	"github.com/kafkaorders/pipeline/internal/domain"
)

func TestFakeSourceFiltersToPendingOnly(t *testing.T) {
	src := NewFakeSource([]domain.Order{
		{ID: "O1", Status: domain.StatusPending, CreatedAt: time.Now()},
		{ID: "O2", Status: "SHIPPED", CreatedAt: time.Now()},
	})

	orders, err := src.FetchOrdersForEvent(context.Background(), domain.Event{TradingPartnerName: "ACME", BusinessUnitName: "WEST"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "O1" {
		t.Fatalf("expected only O1 (PENDING), got %+v", orders)
	}
}

func TestFakeSourceBatchUpdateOrderStatus(t *testing.T) {
	src := NewFakeSource([]domain.Order{{ID: "O1", Status: domain.StatusPending}})

	if err := src.BatchUpdateOrderStatus(context.Background(), []string{"O1"}, "PROCESSED"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	orders, _ := src.FetchOrdersForEvent(context.Background(), domain.Event{})
	if len(orders) != 0 {
		t.Fatalf("expected O1 no longer PENDING after status update, got %+v", orders)
	}
}

package transform

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kafkaorders/pipeline/internal/domain"
	"github.com/kafkaorders/pipeline/internal/preload"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

// TestHappyPathIndividual covers three GOLD-tier orders with qty=20
// inventory and (base, discount, tax) = (amount, 0, 0.08).
func TestHappyPathIndividual(t *testing.T) {
	orders := []domain.Order{
		{ID: "O1", CustomerID: "CUST-1", Amount: mustDecimal(t, "50")},
		{ID: "O2", CustomerID: "CUST-1", Amount: mustDecimal(t, "150")},
		{ID: "O3", CustomerID: "CUST-1", Amount: mustDecimal(t, "1000")},
	}
	ctx := preload.ProcessingContext{
		Customers: map[string]domain.Customer{
			"O1": {CustomerID: "CUST-1", Name: "Jane", Tier: domain.TierGold},
			"O2": {CustomerID: "CUST-1", Name: "Jane", Tier: domain.TierGold},
			"O3": {CustomerID: "CUST-1", Name: "Jane", Tier: domain.TierGold},
		},
		Inventory: map[string]domain.Inventory{
			"O1": {OrderID: "O1", QuantityAvailable: 20},
			"O2": {OrderID: "O2", QuantityAvailable: 20},
			"O3": {OrderID: "O3", QuantityAvailable: 20},
		},
		Pricing: map[string]domain.Pricing{
			"O1": {OrderID: "O1", BasePrice: mustDecimal(t, "50"), Discount: decimal.Zero, TaxRate: mustDecimal(t, "0.08")},
			"O2": {OrderID: "O2", BasePrice: mustDecimal(t, "150"), Discount: decimal.Zero, TaxRate: mustDecimal(t, "0.08")},
			"O3": {OrderID: "O3", BasePrice: mustDecimal(t, "1000"), Discount: decimal.Zero, TaxRate: mustDecimal(t, "0.08")},
		},
	}

	tr := NewBusinessTransformer(10, "test")
	successes, failures := tr.ProcessOrders(orders, ctx, "trace-1")

	if len(failures) != 0 {
		t.Fatalf("expected 0 failures, got %d", len(failures))
	}
	if len(successes) != 3 {
		t.Fatalf("expected 3 successes, got %d", len(successes))
	}

	want := map[string]string{"O1": "48.60", "O2": "145.80", "O3": "972.00"}
	for _, po := range successes {
		if po.Status != domain.StatusReadyToShip {
			t.Errorf("order %s: expected READY_TO_SHIP, got %s", po.OrderID, po.Status)
		}
		if got := po.FinalPrice.StringFixed(2); got != want[po.OrderID] {
			t.Errorf("order %s: expected finalPrice %s, got %s", po.OrderID, want[po.OrderID], got)
		}
	}
}

func TestSuccessesAndFailuresPartitionInput(t *testing.T) {
	orders := []domain.Order{{ID: "O1"}, {ID: "O2"}, {ID: "O3"}}
	tr := NewBusinessTransformer(10, "test")
	successes, failures := tr.ProcessOrders(orders, preload.ProcessingContext{}, "trace-1")

	if len(successes)+len(failures) != len(orders) {
		t.Fatalf("expected successes+failures=%d, got %d", len(orders), len(successes)+len(failures))
	}
}

func TestMissingPricingYieldsZeroFinalPrice(t *testing.T) {
	orders := []domain.Order{{ID: "O1", CustomerID: "C1"}}
	tr := NewBusinessTransformer(10, "test")
	successes, _ := tr.ProcessOrders(orders, preload.ProcessingContext{}, "trace-1")
	if len(successes) != 1 {
		t.Fatalf("expected 1 success, got %d", len(successes))
	}
	if !successes[0].FinalPrice.IsZero() {
		t.Fatalf("expected zero finalPrice when pricing absent, got %s", successes[0].FinalPrice)
	}
	if successes[0].CustomerName != "Unknown" {
		t.Fatalf("expected customerName 'Unknown' when customer absent, got %s", successes[0].CustomerName)
	}
	if successes[0].Status != domain.StatusPendingInventory {
		t.Fatalf("expected PENDING_INVENTORY when inventory absent, got %s", successes[0].Status)
	}
}

func TestInventoryStatusThresholds(t *testing.T) {
	cases := []struct {
		qty  int
		want string
	}{
		{20, domain.StatusReadyToShip},
		{11, domain.StatusReadyToShip},
		{10, domain.StatusLowStock},
		{1, domain.StatusLowStock},
		{0, domain.StatusBackorder},
	}
	tr := NewBusinessTransformer(10, "test")
	for _, c := range cases {
		orders := []domain.Order{{ID: "O1"}}
		ctx := preload.ProcessingContext{Inventory: map[string]domain.Inventory{"O1": {OrderID: "O1", QuantityAvailable: c.qty}}}
		successes, _ := tr.ProcessOrders(orders, ctx, "trace-1")
		if successes[0].Status != c.want {
			t.Errorf("qty=%d: expected %s, got %s", c.qty, c.want, successes[0].Status)
		}
	}
}

func TestTransformDeterministicModuloTimestamps(t *testing.T) {
	orders := []domain.Order{{ID: "O1", CustomerID: "C1"}}
	ctx := preload.ProcessingContext{
		Customers: map[string]domain.Customer{"O1": {CustomerID: "C1", Name: "Jane", Tier: domain.TierPremium}},
		Inventory: map[string]domain.Inventory{"O1": {OrderID: "O1", QuantityAvailable: 5, WarehouseLocation: "DC1"}},
		Pricing:   map[string]domain.Pricing{"O1": {OrderID: "O1", BasePrice: mustDecimal(t, "100"), Discount: mustDecimal(t, "0.1"), TaxRate: mustDecimal(t, "0.05")}},
	}

	tr := NewBusinessTransformer(10, "test")
	a, _ := tr.ProcessOrders(orders, ctx, "trace-1")
	b, _ := tr.ProcessOrders(orders, ctx, "trace-1")

	if a[0].OrderID != b[0].OrderID || a[0].CustomerName != b[0].CustomerName ||
		a[0].CustomerTier != b[0].CustomerTier || a[0].Status != b[0].Status ||
		a[0].WarehouseLocation != b[0].WarehouseLocation || !a[0].FinalPrice.Equal(b[0].FinalPrice) {
		t.Fatalf("expected deterministic transform (modulo timestamps), got %+v vs %+v", a[0], b[0])
	}
}

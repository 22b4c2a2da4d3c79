package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessedOrder statuses, derived from inventory availability.
const (
	StatusReadyToShip      = "READY_TO_SHIP"
	StatusLowStock         = "LOW_STOCK"
	StatusBackorder        = "BACKORDER"
	StatusPendingInventory = "PENDING_INVENTORY"
)

// ProcessedOrder is the output of the Business Transformer for one order.
type ProcessedOrder struct {
	OrderID           string          `json:"orderId"`
	CustomerID        string          `json:"customerId"`
	CustomerName      string          `json:"customerName"`
	CustomerTier      string          `json:"customerTier"`
	FinalPrice        decimal.Decimal `json:"finalPrice"`
	WarehouseLocation string          `json:"warehouseLocation"`
	Status            string          `json:"status"`
	ProcessedAt       time.Time       `json:"processedAt"`
	ProcessedBy       string          `json:"processedBy"`
	TraceID           string          `json:"traceId,omitempty"`
}

// GroupedMessage bundles ProcessedOrders that share a grouping key.
type GroupedMessage struct {
	GroupID     string            `json:"groupId"`
	GroupingKey string            `json:"groupingKey"`
	GroupType   string            `json:"groupType"`
	Orders      []ProcessedOrder  `json:"orders"`
	OrderCount  int               `json:"orderCount"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	GroupedAt   time.Time         `json:"groupedAt"`
	GroupedBy   string            `json:"groupedBy"`
	TraceID     string            `json:"traceId,omitempty"`
}

// FailedOrder records a per-order transform failure for the dead-letter sink.
type FailedOrder struct {
	Order         Order     `json:"order"`
	ErrorMessage  string    `json:"errorMessage"`
	ExceptionType string    `json:"exceptionType"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Timings records the wall-clock duration of each orchestrator stage.
type Timings struct {
	PreloadMs    int64 `json:"preloadMs"`
	ProcessingMs int64 `json:"processingMs"`
	PublishMs    int64 `json:"publishMs"`
	TotalMs      int64 `json:"totalMs"`
}

// Result is the outcome of running the pipeline over one batch of orders.
type Result struct {
	Successes []ProcessedOrder `json:"successes"`
	Failures  []FailedOrder    `json:"failures"`
	Timings   Timings          `json:"timings"`
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is a line item on a document-store order record. It is not part
// of the per-order transform but is carried through so batchUpdateOrderStatus
// and the inventory join have something to key against.
type OrderItem struct {
	SKU      string          `json:"sku"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Order is a pending order snapshot read from the document store.
type Order struct {
	ID         string          `json:"orderId"`
	CustomerID string          `json:"customerId"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"createdAt"`
	Items      []OrderItem     `json:"items,omitempty"`
}

const StatusPending = "PENDING"

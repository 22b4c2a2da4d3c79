package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer tiers, in ascending order of tier bonus.
const (
	TierStandard = "STANDARD"
	TierPremium  = "PREMIUM"
	TierGold     = "GOLD"
)

// Customer is relational reference data joined by customer id.
type Customer struct {
	CustomerID string
	Name       string
	Email      string
	Tier       string
}

// Inventory is relational reference data joined by SKU, keyed by order id.
type Inventory struct {
	OrderID            string
	SKU                string
	QuantityAvailable  int
	WarehouseLocation  string
}

// Pricing is relational reference data keyed by order id.
type Pricing struct {
	OrderID   string
	BasePrice decimal.Decimal
	Discount  decimal.Decimal
	TaxRate   decimal.Decimal
}

// Status values shared by PartnerStatus and UnitStatus.
const (
	StatusActive     = "ACTIVE"
	StatusInactive   = "INACTIVE"
	StatusSuspended  = "SUSPENDED"
)

// PartnerStatus is the trading partner's active/inactive/suspended state.
type PartnerStatus struct {
	ID        string
	Name      string
	Status    string
	UpdatedAt time.Time
}

// IsActive reports whether the partner is currently ACTIVE. Any other status,
// including SUSPENDED, counts as non-active for validation purposes.
func (p *PartnerStatus) IsActive() bool {
	return p != nil && p.Status == StatusActive
}

// UnitStatus is the business unit's active/inactive/suspended state.
type UnitStatus struct {
	ID        string
	Name      string
	Status    string
	UpdatedAt time.Time
}

// IsActive reports whether the unit is currently ACTIVE.
func (u *UnitStatus) IsActive() bool {
	return u != nil && u.Status == StatusActive
}

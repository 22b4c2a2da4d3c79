// Package reference implements typed, chunked, retrying batch readers over
// the relational store, built on database/sql + lib/pq.
package reference

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/lib/pq"

	"github.com/kafkaorders/pipeline/internal/domain"
)

// Repository is the interface the rest of the pipeline depends on; the
// relational driver itself is an external collaborator the rest of the
// pipeline never sees directly.
type Repository interface {
	FindOrdersByIds(ids []string) ([]domain.Order, error)
	BatchFetchCustomerData(ids []string) (map[string]domain.Customer, error)
	BatchFetchInventoryData(ids []string) (map[string]domain.Inventory, error)
	BatchFetchPricingData(ids []string) (map[string]domain.Pricing, error)
	FindTradingPartnerByName(name string) (*domain.PartnerStatus, error)
	FindBusinessUnitByName(name string) (*domain.UnitStatus, error)
}

// PostgresRepository is the production Repository.
type PostgresRepository struct {
	db    *sql.DB
	chunk int
	retry retryPolicy
}

// NewPostgresRepository opens a connection pool against dsn.
func NewPostgresRepository(dsn string, chunkSize, maxRetries int, retryDelayMs int64) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("reference: connected to PostgreSQL")
	return &PostgresRepository{
		db:    db,
		chunk: chunkSize,
		retry: retryPolicy{maxRetries: maxRetries, retryDelayMs: retryDelayMs},
	}, nil
}

func (r *PostgresRepository) Close() error { return r.db.Close() }

// placeholders builds a Postgres $1..$n placeholder list and the matching
// []interface{} argument slice for an IN clause over ids.
func placeholders(ids []string) (string, []interface{}) {
	ph := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	return strings.Join(ph, ","), args
}

// FindOrdersByIds fetches orders across all chunks; a failing chunk aborts
// the whole read (an order-source disagreement between document store and
// relational store is unexpected, unlike the reference-data joins below).
func (r *PostgresRepository) FindOrdersByIds(ids []string) ([]domain.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var all []domain.Order
	for i, part := range chunk(ids, r.chunk) {
		rows, err := withRetry(r.retry, "findOrdersByIds", func() ([]domain.Order, error) {
			return r.findOrdersByIdsChunk(part)
		})
		if err != nil {
			log.Printf("findOrdersByIds: chunk %d/%d failed after retries: %v", i+1, numChunks(ids, r.chunk), err)
			return all, err
		}
		all = append(all, rows...)
	}
	return all, nil
}

func (r *PostgresRepository) findOrdersByIdsChunk(ids []string) ([]domain.Order, error) {
	ph, args := placeholders(ids)
	query := fmt.Sprintf(`SELECT order_id, customer_id, status, amount, created_at
		FROM orders WHERE order_id IN (%s)`, ph)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.Amount, &o.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

// BatchFetchCustomerData is the chunked, retrying, partial-tolerant reader
// pattern shared by the other BatchFetch* methods below: a chunk that
// exhausts retries is logged and skipped, and the read continues with the
// remaining chunks.
func (r *PostgresRepository) BatchFetchCustomerData(ids []string) (map[string]domain.Customer, error) {
	result := make(map[string]domain.Customer)
	if len(ids) == 0 {
		return result, nil
	}
	parts := chunk(ids, r.chunk)
	for i, part := range parts {
		m, err := withRetry(r.retry, "batchFetchCustomerData", func() (map[string]domain.Customer, error) {
			return r.batchFetchCustomerDataChunk(part)
		})
		if err != nil {
			log.Printf("batchFetchCustomerData: chunk %d/%d exhausted retries, continuing with remaining chunks: %v", i+1, len(parts), err)
			continue
		}
		for k, v := range m {
			result[k] = v
		}
	}
	return result, nil
}

func (r *PostgresRepository) batchFetchCustomerDataChunk(ids []string) (map[string]domain.Customer, error) {
	ph, args := placeholders(ids)
	query := fmt.Sprintf(`SELECT o.order_id, c.customer_id, c.name, c.email, c.tier
		FROM customers c JOIN orders o ON c.customer_id = o.customer_id
		WHERE o.order_id IN (%s)`, ph)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]domain.Customer)
	for rows.Next() {
		var orderID string
		var c domain.Customer
		if err := rows.Scan(&orderID, &c.CustomerID, &c.Name, &c.Email, &c.Tier); err != nil {
			return nil, err
		}
		result[orderID] = c
	}
	return result, rows.Err()
}

// BatchFetchInventoryData — see BatchFetchCustomerData for the chunking /
// partial-tolerance contract.
func (r *PostgresRepository) BatchFetchInventoryData(ids []string) (map[string]domain.Inventory, error) {
	result := make(map[string]domain.Inventory)
	if len(ids) == 0 {
		return result, nil
	}
	parts := chunk(ids, r.chunk)
	for i, part := range parts {
		m, err := withRetry(r.retry, "batchFetchInventoryData", func() (map[string]domain.Inventory, error) {
			return r.batchFetchInventoryDataChunk(part)
		})
		if err != nil {
			log.Printf("batchFetchInventoryData: chunk %d/%d exhausted retries, continuing with remaining chunks: %v", i+1, len(parts), err)
			continue
		}
		for k, v := range m {
			result[k] = v
		}
	}
	return result, nil
}

func (r *PostgresRepository) batchFetchInventoryDataChunk(ids []string) (map[string]domain.Inventory, error) {
	ph, args := placeholders(ids)
	query := fmt.Sprintf(`SELECT oi.order_id, i.sku, i.quantity_available, i.warehouse_location
		FROM inventory i JOIN order_items oi ON i.sku = oi.sku
		WHERE oi.order_id IN (%s)`, ph)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]domain.Inventory)
	for rows.Next() {
		var inv domain.Inventory
		if err := rows.Scan(&inv.OrderID, &inv.SKU, &inv.QuantityAvailable, &inv.WarehouseLocation); err != nil {
			return nil, err
		}
		result[inv.OrderID] = inv
	}
	return result, rows.Err()
}

// BatchFetchPricingData — see BatchFetchCustomerData for the chunking /
// partial-tolerance contract.
func (r *PostgresRepository) BatchFetchPricingData(ids []string) (map[string]domain.Pricing, error) {
	result := make(map[string]domain.Pricing)
	if len(ids) == 0 {
		return result, nil
	}
	parts := chunk(ids, r.chunk)
	for i, part := range parts {
		m, err := withRetry(r.retry, "batchFetchPricingData", func() (map[string]domain.Pricing, error) {
			return r.batchFetchPricingDataChunk(part)
		})
		if err != nil {
			log.Printf("batchFetchPricingData: chunk %d/%d exhausted retries, continuing with remaining chunks: %v", i+1, len(parts), err)
			continue
		}
		for k, v := range m {
			result[k] = v
		}
	}
	return result, nil
}

func (r *PostgresRepository) batchFetchPricingDataChunk(ids []string) (map[string]domain.Pricing, error) {
	ph, args := placeholders(ids)
	query := fmt.Sprintf(`SELECT order_id, base_price, discount, tax_rate
		FROM order_pricing WHERE order_id IN (%s)`, ph)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]domain.Pricing)
	for rows.Next() {
		var p domain.Pricing
		if err := rows.Scan(&p.OrderID, &p.BasePrice, &p.Discount, &p.TaxRate); err != nil {
			return nil, err
		}
		result[p.OrderID] = p
	}
	return result, rows.Err()
}

// FindTradingPartnerByName returns nil (not an error) when the partner is
// not found: absence is a normal outcome here, not a failure.
func (r *PostgresRepository) FindTradingPartnerByName(name string) (*domain.PartnerStatus, error) {
	query := `SELECT partner_id, partner_name, status, updated_at FROM trading_partners WHERE partner_name = $1`
	var p domain.PartnerStatus
	var updatedAt sql.NullTime
	err := r.db.QueryRow(query, name).Scan(&p.ID, &p.Name, &p.Status, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return &p, nil
}

// FindBusinessUnitByName returns nil (not an error) when the unit is not found.
func (r *PostgresRepository) FindBusinessUnitByName(name string) (*domain.UnitStatus, error) {
	query := `SELECT unit_id, unit_name, status, updated_at FROM business_units WHERE unit_name = $1`
	var u domain.UnitStatus
	var updatedAt sql.NullTime
	err := r.db.QueryRow(query, name).Scan(&u.ID, &u.Name, &u.Status, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		u.UpdatedAt = updatedAt.Time
	}
	return &u, nil
}

func numChunks(ids []string, size int) int {
	return len(chunk(ids, size))
}

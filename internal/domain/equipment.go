package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Equipment is a pool of identical units owned by one store.
// Between operations 0 <= QuantityAvailable <= QuantityTotal.
type Equipment struct {
	ID                int64           `json:"id"`
	StoreID           int64           `json:"store_id"`
	Title             string          `json:"title"`
	QuantityTotal     int             `json:"quantity_total"`
	QuantityAvailable int             `json:"quantity_available"`
	PricePerDay       decimal.Decimal `json:"price_per_day"`
	IsDeleted         bool            `json:"is_deleted"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Rented is the number of units currently out of the pool.
func (e *Equipment) Rented() int {
	return e.QuantityTotal - e.QuantityAvailable
}

// Reserve allocates up to requested units. It clamps to what is available and
// only fails when nothing is available at all.
func (e *Equipment) Reserve(requested int) (int, error) {
	if requested <= 0 {
		return 0, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidRequest, requested)
	}
	if e.QuantityAvailable <= 0 {
		return 0, &InventoryError{EquipmentID: e.ID, Title: e.Title, Available: e.QuantityAvailable, Requested: requested}
	}
	allocated := min(requested, e.QuantityAvailable)
	e.QuantityAvailable -= allocated
	return allocated, nil
}

// Take removes exactly qty units or fails without touching the counters.
func (e *Equipment) Take(qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidRequest, qty)
	}
	if e.QuantityAvailable < qty {
		return &InventoryError{EquipmentID: e.ID, Title: e.Title, Available: e.QuantityAvailable, Requested: qty}
	}
	e.QuantityAvailable -= qty
	return nil
}

// Release puts qty units back, never exceeding the total. It returns how many
// units were actually credited.
func (e *Equipment) Release(qty int) int {
	if qty <= 0 {
		return 0
	}
	before := e.QuantityAvailable
	e.QuantityAvailable = min(e.QuantityAvailable+qty, e.QuantityTotal)
	if e.QuantityAvailable < before {
		e.QuantityAvailable = before
	}
	return e.QuantityAvailable - before
}

// ResizeTotal changes the owned unit count while keeping units that are out
// on rental accounted for.
func (e *Equipment) ResizeTotal(newTotal int) error {
	if newTotal < 0 {
		return fmt.Errorf("%w: quantity_total must not be negative, got %d", ErrInvalidRequest, newTotal)
	}
	rented := e.Rented()
	e.QuantityTotal = newTotal
	e.QuantityAvailable = max(0, min(newTotal, newTotal-rented))
	return nil
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RentalStatus string

// Values match the rows already stored by the existing deployments.
const (
	RentalStatusBooked    RentalStatus = "booked"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusCompleted RentalStatus = "completed"
	RentalStatusOverdue   RentalStatus = "overdue"
	RentalStatusCancelled RentalStatus = "cancelled"
)

func (s RentalStatus) Valid() bool {
	switch s {
	case RentalStatusBooked, RentalStatusActive, RentalStatusCompleted, RentalStatusOverdue, RentalStatusCancelled:
		return true
	}
	return false
}

// HoldsInventory reports whether a rental in this status still has units out of the pool.
func (s RentalStatus) HoldsInventory() bool {
	return s == RentalStatusBooked || s == RentalStatusActive || s == RentalStatusOverdue
}

type Rental struct {
	ID          int64           `json:"id"`
	StoreID     int64           `json:"store_id"`
	ClientID    int64           `json:"client_id"`
	AdminID     int64           `json:"admin_id"` // responsible staff member
	DateStart   time.Time       `json:"date_start"`
	DateEnd     time.Time       `json:"date_end"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      RentalStatus    `json:"status"`
	Comment     string          `json:"comment"`
	IsDeleted   bool            `json:"is_deleted"`
	Items       []RentalItem    `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RentalItem is one booked line. PricePerDay is a snapshot taken at booking time.
type RentalItem struct {
	ID                int64           `json:"id"`
	RentalID          int64           `json:"rental_id"`
	EquipmentID       int64           `json:"equipment_id"`
	Quantity          int             `json:"quantity"`
	RequestedQuantity int             `json:"requested_quantity"`
	PricePerDay       decimal.Decimal `json:"price_per_day"`
}

// PartiallyFulfilled is true when any line was clamped to the available stock.
func (r *Rental) PartiallyFulfilled() bool {
	for _, it := range r.Items {
		if it.Quantity < it.RequestedQuantity {
			return true
		}
	}
	return false
}

// Returnable reports whether the return transition accepts the current status.
// With strict set only active rentals qualify; otherwise overdue ones do too.
func (r *Rental) Returnable(strict bool) bool {
	if r.IsDeleted {
		return false
	}
	if r.Status == RentalStatusActive {
		return true
	}
	return !strict && r.Status == RentalStatusOverdue
}

// RentalLineRequest is one requested equipment line of a new rental.
type RentalLineRequest struct {
	EquipmentID int64           `json:"equipment_id"`
	Quantity    int             `json:"quantity"`
	PricePerDay decimal.Decimal `json:"price_per_day"`
}

// RentalRequest is the already validated, store-scoped input to the reservation engine.
type RentalRequest struct {
	StoreID     int64
	ClientID    int64
	AdminID     int64
	DateStart   time.Time
	DateEnd     time.Time
	Lines       []RentalLineRequest
	TotalAmount decimal.Decimal // used only when the computed total is not positive
	Status      RentalStatus    // booked (default) or active
	Comment     string
}

type RentalFilter struct {
	Status RentalStatus
	From   *time.Time // date_start >= From
	To     *time.Time // date_end <= To
}

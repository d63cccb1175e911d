package service

import (
	"context"
	"errors"
	"time"

	"rentdesk-backend/internal/domain"

	"github.com/shopspring/decimal"
)

type RentalService interface {
	CreateRental(ctx context.Context, req domain.RentalRequest) (*domain.Rental, error)
	GetRental(ctx context.Context, id int64, scope domain.Scope) (*domain.Rental, error)
	ListRentals(ctx context.Context, scope domain.Scope, filter domain.RentalFilter, skip, limit int) ([]domain.Rental, error)
	DeleteRental(ctx context.Context, id int64, scope domain.Scope) error
	ActivateBooking(ctx context.Context, id int64, scope domain.Scope) (*domain.Rental, error)
	ReturnRental(ctx context.Context, id int64, scope domain.Scope, cash, card decimal.Decimal) (*domain.Rental, error)
	ListSettlements(ctx context.Context, id int64, scope domain.Scope) ([]domain.Settlement, error)
	SweepOverdue(ctx context.Context, scope domain.Scope, today time.Time) (int, error)
}

type EquipmentService interface {
	AddEquipment(ctx context.Context, e *domain.Equipment) error
	GetEquipment(ctx context.Context, id int64, scope domain.Scope) (*domain.Equipment, error)
	ListEquipment(ctx context.Context, scope domain.Scope, skip, limit int) ([]domain.Equipment, error)
	DeleteEquipment(ctx context.Context, id int64, scope domain.Scope) error
	ResizeTotal(ctx context.Context, id int64, scope domain.Scope, newTotal int) (*domain.Equipment, error)
	ListMovements(ctx context.Context, id int64, scope domain.Scope, limit int) ([]domain.EquipmentMovement, error)
}

// RentalPolicy holds the product switches of the rental lifecycle.
type RentalPolicy struct {
	// StrictReturnFromActive refuses returns of overdue rentals.
	StrictReturnFromActive bool
	// SweepOnRead runs the overdue sweep before every listing.
	SweepOnRead bool
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// Clock returns the current time; tests replace it.
type Clock func() time.Time

// isExpected tells business failures apart from infrastructure ones for logging.
func isExpected(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound,
		domain.ErrInsufficientInventory,
		domain.ErrInvalidStateTransition,
		domain.ErrInvalidDateRange,
		domain.ErrInvalidRequest,
		domain.ErrInvalidScope,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

package repository

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
)

// Lookups return domain.ErrNotFound for missing or soft-deleted rows.
// Scope checks are the caller's job; ids are global.

type EquipmentRepository interface {
	Create(ctx context.Context, e *domain.Equipment) error
	GetByID(ctx context.Context, id int64) (*domain.Equipment, error)
	List(ctx context.Context, scope domain.Scope, skip, limit int) ([]domain.Equipment, error)
	SoftDelete(ctx context.Context, id int64) error
	// LockByIDs row-locks the given equipment in ascending id order for the
	// rest of the transaction. Missing ids are simply absent from the result.
	LockByIDs(ctx context.Context, ids []int64) ([]domain.Equipment, error)
	// Decrement removes qty units only if at least qty are available.
	Decrement(ctx context.Context, id int64, qty int) error
	// Increment adds qty units, capped at quantity_total.
	Increment(ctx context.Context, id int64, qty int) error
	UpdateCounts(ctx context.Context, e *domain.Equipment) error
}

type RentalRepository interface {
	// Create inserts the rental and all of its items, filling in their ids.
	Create(ctx context.Context, r *domain.Rental) error
	GetByID(ctx context.Context, id int64) (*domain.Rental, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error)
	List(ctx context.Context, scope domain.Scope, filter domain.RentalFilter, skip, limit int) ([]domain.Rental, error)
	UpdateStatus(ctx context.Context, id int64, status domain.RentalStatus, comment string) error
	SoftDelete(ctx context.Context, id int64) error
	// MarkOverdue flips active rentals whose date_end is before today and
	// returns the ids it changed.
	MarkOverdue(ctx context.Context, scope domain.Scope, today time.Time) ([]int64, error)
}

type SettlementRepository interface {
	Create(ctx context.Context, s *domain.Settlement) error
	ListByRental(ctx context.Context, rentalID int64) ([]domain.Settlement, error)
}

type MovementRepository interface {
	Create(ctx context.Context, m *domain.EquipmentMovement) error
	ListByEquipment(ctx context.Context, equipmentID int64, limit int) ([]domain.EquipmentMovement, error)
}

// Repositories is the set of repositories bound to one connection or transaction.
type Repositories struct {
	Equipment   EquipmentRepository
	Rentals     RentalRepository
	Settlements SettlementRepository
	Movements   MovementRepository
}

// TxRunner runs fn inside a single transaction. fn returning an error rolls
// every write back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type Store interface {
	TxRunner
	Repos() Repositories
	Ping(ctx context.Context) error
}

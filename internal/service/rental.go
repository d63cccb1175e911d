package service

import (
	"context"
	"fmt"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/utils"

	"github.com/shopspring/decimal"
)

type rentalService struct {
	store   repository.Store
	ledger  *PoolLedger
	sweeper *Sweeper
	policy  RentalPolicy
	now     Clock
}

func NewRentalService(store repository.Store, policy RentalPolicy, clock Clock) RentalService {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &rentalService{
		store:   store,
		ledger:  NewPoolLedger(),
		sweeper: NewSweeper(store),
		policy:  policy,
		now:     clock,
	}
}

func validateRentalRequest(req domain.RentalRequest) error {
	if req.StoreID <= 0 {
		return domain.ErrInvalidScope
	}
	if len(req.Lines) == 0 {
		return fmt.Errorf("%w: rental needs at least one equipment line", domain.ErrInvalidRequest)
	}
	for i, line := range req.Lines {
		if line.EquipmentID <= 0 {
			return fmt.Errorf("%w: line %d: equipment_id is required", domain.ErrInvalidRequest, i)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: line %d: quantity must be positive", domain.ErrInvalidRequest, i)
		}
		if line.PricePerDay.IsNegative() {
			return fmt.Errorf("%w: line %d: price_per_day must not be negative", domain.ErrInvalidRequest, i)
		}
	}
	switch req.Status {
	case "", domain.RentalStatusBooked, domain.RentalStatusActive:
	default:
		return fmt.Errorf("%w: a rental cannot start in status %s", domain.ErrInvalidRequest, req.Status)
	}
	return nil
}

// CreateRental reserves every requested line and persists the rental in one
// transaction. Lines are clamped to the available stock; a line with nothing
// available fails the whole call and nothing is written.
func (s *rentalService) CreateRental(ctx context.Context, req domain.RentalRequest) (*domain.Rental, error) {
	logger.EnterMethod(ctx, "RentalService.CreateRental", "storeID", req.StoreID, "clientID", req.ClientID, "lines", len(req.Lines))

	rental, err := s.createRental(ctx, req)
	if err != nil {
		logger.ExitMethodWithError(ctx, "RentalService.CreateRental", err, isExpected(err), "storeID", req.StoreID)
		return nil, err
	}

	logger.ExitMethod(ctx, "RentalService.CreateRental", "rentalID", rental.ID, "total", rental.TotalAmount.String(), "partial", rental.PartiallyFulfilled())
	return rental, nil
}

func (s *rentalService) createRental(ctx context.Context, req domain.RentalRequest) (*domain.Rental, error) {
	if err := validateRentalRequest(req); err != nil {
		return nil, err
	}
	days, err := utils.RentalDays(req.DateStart, req.DateEnd)
	if err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = domain.RentalStatusBooked
	}

	ids := make([]int64, 0, len(req.Lines))
	for _, line := range req.Lines {
		ids = append(ids, line.EquipmentID)
	}

	var rental *domain.Rental
	err = s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		pool, err := s.ledger.Lock(ctx, repos, domain.StoreScope(req.StoreID), ids)
		if err != nil {
			return err
		}

		items := make([]domain.RentalItem, 0, len(req.Lines))
		for _, line := range req.Lines {
			allocated, err := s.ledger.Reserve(ctx, repos, pool[line.EquipmentID], line.Quantity)
			if err != nil {
				return err
			}
			items = append(items, domain.RentalItem{
				EquipmentID:       line.EquipmentID,
				Quantity:          allocated,
				RequestedQuantity: line.Quantity,
				PricePerDay:       line.PricePerDay,
			})
		}

		total := utils.RentalTotal(items, days)
		if !total.IsPositive() {
			total = req.TotalAmount
		}

		rental = &domain.Rental{
			StoreID:     req.StoreID,
			ClientID:    req.ClientID,
			AdminID:     req.AdminID,
			DateStart:   utils.DateOnly(req.DateStart),
			DateEnd:     utils.DateOnly(req.DateEnd),
			TotalAmount: total,
			Status:      status,
			Comment:     req.Comment,
			Items:       items,
		}
		if err := repos.Rentals.Create(ctx, rental); err != nil {
			return fmt.Errorf("failed to save rental: %w", err)
		}

		if status == domain.RentalStatusActive {
			return s.recordMovements(ctx, repos, rental, domain.MovementIssued)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rental, nil
}

func (s *rentalService) GetRental(ctx context.Context, id int64, scope domain.Scope) (*domain.Rental, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	rental, err := s.store.Repos().Rentals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(rental.StoreID) {
		return nil, fmt.Errorf("rental %d: %w", id, domain.ErrOutOfScope)
	}
	return rental, nil
}

func (s *rentalService) ListRentals(ctx context.Context, scope domain.Scope, filter domain.RentalFilter, skip, limit int) ([]domain.Rental, error) {
	logger.EnterMethod(ctx, "RentalService.ListRentals", "scope", scope.String(), "status", filter.Status, "skip", skip, "limit", limit)

	if err := scope.Validate(); err != nil {
		logger.ExitMethodWithError(ctx, "RentalService.ListRentals", err, true)
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		err := fmt.Errorf("%w: unknown status %q", domain.ErrInvalidRequest, filter.Status)
		logger.ExitMethodWithError(ctx, "RentalService.ListRentals", err, true)
		return nil, err
	}
	skip = max(skip, 0)
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)

	if s.policy.SweepOnRead {
		if _, err := s.sweeper.Sweep(ctx, scope, s.now()); err != nil {
			logger.ExitMethodWithError(ctx, "RentalService.ListRentals", err, false)
			return nil, err
		}
	}

	rentals, err := s.store.Repos().Rentals.List(ctx, scope, filter, skip, limit)
	if err != nil {
		logger.ExitMethodWithError(ctx, "RentalService.ListRentals", err, false)
		return nil, err
	}

	logger.ExitMethod(ctx, "RentalService.ListRentals", "count", len(rentals))
	return rentals, nil
}

// DeleteRental soft-deletes the rental. Outstanding allocations stay where
// they are; releasing them is the return transition's job.
func (s *rentalService) DeleteRental(ctx context.Context, id int64, scope domain.Scope) error {
	logger.EnterMethod(ctx, "RentalService.DeleteRental", "rentalID", id, "scope", scope.String())

	if err := scope.Validate(); err != nil {
		logger.ExitMethodWithError(ctx, "RentalService.DeleteRental", err, true)
		return err
	}
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := lockRental(ctx, repos, id, scope); err != nil {
			return err
		}
		return repos.Rentals.SoftDelete(ctx, id)
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "RentalService.DeleteRental", err, isExpected(err), "rentalID", id)
		return err
	}

	logger.ExitMethod(ctx, "RentalService.DeleteRental", "rentalID", id)
	return nil
}

func (s *rentalService) ListSettlements(ctx context.Context, id int64, scope domain.Scope) ([]domain.Settlement, error) {
	if _, err := s.GetRental(ctx, id, scope); err != nil {
		return nil, err
	}
	return s.store.Repos().Settlements.ListByRental(ctx, id)
}

func (s *rentalService) SweepOverdue(ctx context.Context, scope domain.Scope, today time.Time) (int, error) {
	return s.sweeper.Sweep(ctx, scope, today)
}

// lockRental loads the rental row for update and checks it belongs to scope.
func lockRental(ctx context.Context, repos repository.Repositories, id int64, scope domain.Scope) (*domain.Rental, error) {
	rental, err := repos.Rentals.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(rental.StoreID) {
		return nil, fmt.Errorf("rental %d: %w", id, domain.ErrOutOfScope)
	}
	return rental, nil
}

func (s *rentalService) recordMovements(ctx context.Context, repos repository.Repositories, rental *domain.Rental, action domain.MovementAction) error {
	at := s.now()
	for _, it := range rental.Items {
		if it.Quantity <= 0 {
			continue
		}
		rentalID := rental.ID
		m := &domain.EquipmentMovement{
			EquipmentID: it.EquipmentID,
			RentalID:    &rentalID,
			Action:      action,
			Quantity:    it.Quantity,
			PerformedBy: rental.AdminID,
			Timestamp:   at,
		}
		if err := repos.Movements.Create(ctx, m); err != nil {
			return fmt.Errorf("failed to record %s movement: %w", action, err)
		}
	}
	return nil
}

func settlementsFor(rentalID int64, cash, card decimal.Decimal, at time.Time) []domain.Settlement {
	var out []domain.Settlement
	if cash.IsPositive() {
		out = append(out, domain.Settlement{RentalID: rentalID, Method: domain.PaymentMethodCash, Amount: cash, RecordedAt: at})
	}
	if card.IsPositive() {
		out = append(out, domain.Settlement{RentalID: rentalID, Method: domain.PaymentMethodCard, Amount: card, RecordedAt: at})
	}
	return out
}

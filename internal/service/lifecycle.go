package service

import (
	"context"
	"fmt"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/utils"

	"github.com/shopspring/decimal"
)

// ActivateBooking hands a booked rental out. Every line is checked against the
// locked pool before any counter moves, so a single short line leaves the
// whole pool untouched.
func (s *rentalService) ActivateBooking(ctx context.Context, id int64, scope domain.Scope) (*domain.Rental, error) {
	logger.EnterMethod(ctx, "RentalService.ActivateBooking", "rentalID", id, "scope", scope.String())

	if err := scope.Validate(); err != nil {
		logger.ExitMethodWithError(ctx, "RentalService.ActivateBooking", err, true)
		return nil, err
	}

	var rental *domain.Rental
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		rental, err = lockRental(ctx, repos, id, scope)
		if err != nil {
			return err
		}
		if rental.Status != domain.RentalStatusBooked {
			return &domain.TransitionError{RentalID: id, From: rental.Status, Action: "activate"}
		}

		required := make(map[int64]int)
		ids := make([]int64, 0, len(rental.Items))
		for _, it := range rental.Items {
			if it.Quantity <= 0 {
				continue
			}
			if _, seen := required[it.EquipmentID]; !seen {
				ids = append(ids, it.EquipmentID)
			}
			required[it.EquipmentID] += it.Quantity
		}

		pool, err := s.ledger.Lock(ctx, repos, scope, ids)
		if err != nil {
			return err
		}
		for _, eqID := range ids {
			e := pool[eqID]
			if e.QuantityAvailable < required[eqID] {
				return &domain.InventoryError{EquipmentID: e.ID, Title: e.Title, Available: e.QuantityAvailable, Requested: required[eqID]}
			}
		}
		for _, it := range rental.Items {
			if it.Quantity <= 0 {
				continue
			}
			if err := s.ledger.Take(ctx, repos, pool[it.EquipmentID], it.Quantity); err != nil {
				return err
			}
		}

		if err := repos.Rentals.UpdateStatus(ctx, id, domain.RentalStatusActive, rental.Comment); err != nil {
			return fmt.Errorf("failed to activate rental: %w", err)
		}
		rental.Status = domain.RentalStatusActive
		return s.recordMovements(ctx, repos, rental, domain.MovementIssued)
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "RentalService.ActivateBooking", err, isExpected(err), "rentalID", id)
		return nil, err
	}

	logger.ExitMethod(ctx, "RentalService.ActivateBooking", "rentalID", id)
	return rental, nil
}

// ReturnRental completes an active (or, unless strict, overdue) rental: every
// line goes back to the pool, the settlement is recorded both as structured
// rows and as the legacy comment note.
func (s *rentalService) ReturnRental(ctx context.Context, id int64, scope domain.Scope, cash, card decimal.Decimal) (*domain.Rental, error) {
	logger.EnterMethod(ctx, "RentalService.ReturnRental", "rentalID", id, "scope", scope.String(), "cash", cash.String(), "card", card.String())

	if err := scope.Validate(); err != nil {
		logger.ExitMethodWithError(ctx, "RentalService.ReturnRental", err, true)
		return nil, err
	}
	cash, card = utils.NonNegative(cash), utils.NonNegative(card)

	var rental *domain.Rental
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		rental, err = lockRental(ctx, repos, id, scope)
		if err != nil {
			return err
		}
		if !rental.Returnable(s.policy.StrictReturnFromActive) {
			return &domain.TransitionError{RentalID: id, From: rental.Status, Action: "return"}
		}

		ids := make([]int64, 0, len(rental.Items))
		for _, it := range rental.Items {
			ids = append(ids, it.EquipmentID)
		}
		pool, err := s.ledger.LockPresent(ctx, repos, scope, ids)
		if err != nil {
			return err
		}
		for _, it := range rental.Items {
			e, ok := pool[it.EquipmentID]
			if !ok {
				logger.WarnContext(ctx, "Returned equipment no longer exists, skipping release", "rentalID", id, "equipmentID", it.EquipmentID)
				continue
			}
			if err := s.ledger.Release(ctx, repos, e, it.Quantity); err != nil {
				return err
			}
		}

		comment := utils.AppendSettlementNote(rental.Comment, cash, card)
		if err := repos.Rentals.UpdateStatus(ctx, id, domain.RentalStatusCompleted, comment); err != nil {
			return fmt.Errorf("failed to complete rental: %w", err)
		}
		rental.Status = domain.RentalStatusCompleted
		rental.Comment = comment

		for _, st := range settlementsFor(id, cash, card, s.now()) {
			if err := repos.Settlements.Create(ctx, &st); err != nil {
				return fmt.Errorf("failed to record settlement: %w", err)
			}
		}
		return s.recordMovements(ctx, repos, rental, domain.MovementReturned)
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "RentalService.ReturnRental", err, isExpected(err), "rentalID", id)
		return nil, err
	}

	logger.ExitMethod(ctx, "RentalService.ReturnRental", "rentalID", id, "comment", rental.Comment)
	return rental, nil
}

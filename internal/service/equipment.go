package service

import (
	"context"
	"fmt"
	"strings"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
)

type equipmentService struct {
	store  repository.Store
	ledger *PoolLedger
}

func NewEquipmentService(store repository.Store) EquipmentService {
	return &equipmentService{store: store, ledger: NewPoolLedger()}
}

// AddEquipment registers a new pool; every unit starts available.
func (s *equipmentService) AddEquipment(ctx context.Context, e *domain.Equipment) error {
	logger.EnterMethod(ctx, "EquipmentService.AddEquipment", "storeID", e.StoreID, "title", e.Title, "total", e.QuantityTotal)

	e.Title = strings.TrimSpace(e.Title)
	var err error
	switch {
	case e.StoreID <= 0:
		err = domain.ErrInvalidScope
	case e.Title == "":
		err = fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	case e.QuantityTotal < 0:
		err = fmt.Errorf("%w: quantity_total must not be negative", domain.ErrInvalidRequest)
	case e.PricePerDay.IsNegative():
		err = fmt.Errorf("%w: price_per_day must not be negative", domain.ErrInvalidRequest)
	}
	if err == nil {
		e.QuantityAvailable = e.QuantityTotal
		err = s.store.Repos().Equipment.Create(ctx, e)
	}
	if err != nil {
		logger.ExitMethodWithError(ctx, "EquipmentService.AddEquipment", err, isExpected(err))
		return err
	}

	logger.ExitMethod(ctx, "EquipmentService.AddEquipment", "equipmentID", e.ID)
	return nil
}

func (s *equipmentService) GetEquipment(ctx context.Context, id int64, scope domain.Scope) (*domain.Equipment, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	e, err := s.store.Repos().Equipment.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(e.StoreID) {
		return nil, fmt.Errorf("equipment %d: %w", id, domain.ErrOutOfScope)
	}
	return e, nil
}

// ResizeTotal changes the owned unit count under a row lock; units out on
// rental keep their claim.
func (s *equipmentService) ResizeTotal(ctx context.Context, id int64, scope domain.Scope, newTotal int) (*domain.Equipment, error) {
	logger.EnterMethod(ctx, "EquipmentService.ResizeTotal", "equipmentID", id, "newTotal", newTotal)

	if err := scope.Validate(); err != nil {
		logger.ExitMethodWithError(ctx, "EquipmentService.ResizeTotal", err, true)
		return nil, err
	}
	var e *domain.Equipment
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		pool, err := s.ledger.Lock(ctx, repos, scope, []int64{id})
		if err != nil {
			return err
		}
		e = pool[id]
		return s.ledger.Resize(ctx, repos, e, newTotal)
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "EquipmentService.ResizeTotal", err, isExpected(err), "equipmentID", id)
		return nil, err
	}

	logger.ExitMethod(ctx, "EquipmentService.ResizeTotal", "equipmentID", id, "total", e.QuantityTotal, "available", e.QuantityAvailable)
	return e, nil
}

func (s *equipmentService) ListMovements(ctx context.Context, id int64, scope domain.Scope, limit int) ([]domain.EquipmentMovement, error) {
	if _, err := s.GetEquipment(ctx, id, scope); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.store.Repos().Movements.ListByEquipment(ctx, id, min(limit, MaxListLimit))
}

func (s *equipmentService) ListEquipment(ctx context.Context, scope domain.Scope, skip, limit int) ([]domain.Equipment, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.store.Repos().Equipment.List(ctx, scope, max(skip, 0), min(limit, MaxListLimit))
}

// DeleteEquipment soft-deletes a pool. Rentals still holding its units keep
// their items; returning them skips the release.
func (s *equipmentService) DeleteEquipment(ctx context.Context, id int64, scope domain.Scope) error {
	logger.EnterMethod(ctx, "EquipmentService.DeleteEquipment", "equipmentID", id, "scope", scope.String())

	if err := scope.Validate(); err != nil {
		logger.ExitMethodWithError(ctx, "EquipmentService.DeleteEquipment", err, true)
		return err
	}
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		pool, err := s.ledger.Lock(ctx, repos, scope, []int64{id})
		if err != nil {
			return err
		}
		if rented := pool[id].Rented(); rented > 0 {
			logger.WarnContext(ctx, "Deleting equipment with units out on rental", "equipmentID", id, "rented", rented)
		}
		return repos.Equipment.SoftDelete(ctx, id)
	})
	if err != nil {
		logger.ExitMethodWithError(ctx, "EquipmentService.DeleteEquipment", err, isExpected(err), "equipmentID", id)
		return err
	}

	logger.ExitMethod(ctx, "EquipmentService.DeleteEquipment", "equipmentID", id)
	return nil
}

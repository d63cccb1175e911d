package service

import (
	"context"
	"fmt"
	"slices"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

// PoolLedger owns the quantity_total / quantity_available counters. It only
// runs inside a transaction: rows are locked with Lock (ascending id, so
// concurrent callers cannot deadlock) and every decrement is still a
// conditional update, so a stale read can never push a counter below zero.
type PoolLedger struct{}

func NewPoolLedger() *PoolLedger {
	return &PoolLedger{}
}

// Lock row-locks every referenced equipment. A missing row fails with
// ErrNotFound, a row of another store with ErrOutOfScope.
func (l *PoolLedger) Lock(ctx context.Context, repos repository.Repositories, scope domain.Scope, ids []int64) (map[int64]*domain.Equipment, error) {
	pool, err := l.LockPresent(ctx, repos, scope, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := pool[id]; !ok {
			return nil, fmt.Errorf("equipment %d: %w", id, domain.ErrNotFound)
		}
	}
	return pool, nil
}

// LockPresent is Lock without the existence check; deleted equipment is
// just left out of the result.
func (l *PoolLedger) LockPresent(ctx context.Context, repos repository.Repositories, scope domain.Scope, ids []int64) (map[int64]*domain.Equipment, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	rows, err := repos.Equipment.LockByIDs(ctx, sorted)
	if err != nil {
		return nil, err
	}
	pool := make(map[int64]*domain.Equipment, len(rows))
	for i := range rows {
		e := &rows[i]
		if !scope.Allows(e.StoreID) {
			return nil, fmt.Errorf("equipment %d: %w", e.ID, domain.ErrOutOfScope)
		}
		pool[e.ID] = e
	}
	return pool, nil
}

// Reserve allocates min(requested, available) units and fails only when
// nothing is left. It returns the allocated amount.
func (l *PoolLedger) Reserve(ctx context.Context, repos repository.Repositories, e *domain.Equipment, requested int) (int, error) {
	allocated, err := e.Reserve(requested)
	if err != nil {
		return 0, err
	}
	if err := repos.Equipment.Decrement(ctx, e.ID, allocated); err != nil {
		e.QuantityAvailable += allocated
		return 0, err
	}
	return allocated, nil
}

// Take removes exactly qty units.
func (l *PoolLedger) Take(ctx context.Context, repos repository.Repositories, e *domain.Equipment, qty int) error {
	if err := e.Take(qty); err != nil {
		return err
	}
	if err := repos.Equipment.Decrement(ctx, e.ID, qty); err != nil {
		e.QuantityAvailable += qty
		return err
	}
	return nil
}

// Release returns qty units to the pool, capped at quantity_total.
func (l *PoolLedger) Release(ctx context.Context, repos repository.Repositories, e *domain.Equipment, qty int) error {
	if qty <= 0 {
		return nil
	}
	e.Release(qty)
	return repos.Equipment.Increment(ctx, e.ID, qty)
}

// Resize sets a new quantity_total, keeping units out on rental accounted for.
func (l *PoolLedger) Resize(ctx context.Context, repos repository.Repositories, e *domain.Equipment, newTotal int) error {
	if err := e.ResizeTotal(newTotal); err != nil {
		return err
	}
	return repos.Equipment.UpdateCounts(ctx, e)
}

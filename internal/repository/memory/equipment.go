package memory

import (
	"context"
	"fmt"
	"slices"

	"rentdesk-backend/internal/domain"
)

type equipmentRepo struct{ base }

func (r *equipmentRepo) Create(ctx context.Context, e *domain.Equipment) error {
	r.with(func(st *state) {
		e.ID = st.nextID()
		e.CreatedAt, e.UpdatedAt = now(), now()
		st.equipment[e.ID] = *e
	})
	return nil
}

func (r *equipmentRepo) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	var (
		e  domain.Equipment
		ok bool
	)
	r.with(func(st *state) { e, ok = st.equipment[id] })
	if !ok || e.IsDeleted {
		return nil, fmt.Errorf("equipment %d: %w", id, domain.ErrNotFound)
	}
	return &e, nil
}

func (r *equipmentRepo) List(ctx context.Context, scope domain.Scope, skip, limit int) ([]domain.Equipment, error) {
	var out []domain.Equipment
	r.with(func(st *state) {
		for _, id := range sortedKeys(st.equipment) {
			if e := st.equipment[id]; !e.IsDeleted && scope.Allows(e.StoreID) {
				out = append(out, e)
			}
		}
	})
	if skip >= len(out) {
		return nil, nil
	}
	out = out[skip:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *equipmentRepo) SoftDelete(ctx context.Context, id int64) error {
	var err error
	r.with(func(st *state) {
		e, ok := st.equipment[id]
		if !ok || e.IsDeleted {
			err = fmt.Errorf("equipment %d: %w", id, domain.ErrNotFound)
			return
		}
		e.IsDeleted = true
		e.UpdatedAt = now()
		st.equipment[id] = e
	})
	return err
}

func (r *equipmentRepo) LockByIDs(ctx context.Context, ids []int64) ([]domain.Equipment, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var out []domain.Equipment
	r.with(func(st *state) {
		for _, id := range sorted {
			if e, ok := st.equipment[id]; ok && !e.IsDeleted {
				out = append(out, e)
			}
		}
	})
	return out, nil
}

func (r *equipmentRepo) Decrement(ctx context.Context, id int64, qty int) error {
	var err error
	r.with(func(st *state) {
		e, ok := st.equipment[id]
		switch {
		case !ok || e.IsDeleted:
			err = fmt.Errorf("equipment %d: %w", id, domain.ErrNotFound)
		case e.QuantityAvailable < qty:
			err = &domain.InventoryError{EquipmentID: id, Title: e.Title, Available: e.QuantityAvailable, Requested: qty}
		default:
			e.QuantityAvailable -= qty
			e.UpdatedAt = now()
			st.equipment[id] = e
		}
	})
	return err
}

func (r *equipmentRepo) Increment(ctx context.Context, id int64, qty int) error {
	var err error
	r.with(func(st *state) {
		e, ok := st.equipment[id]
		if !ok {
			err = fmt.Errorf("equipment %d: %w", id, domain.ErrNotFound)
			return
		}
		e.QuantityAvailable = min(e.QuantityTotal, e.QuantityAvailable+qty)
		e.UpdatedAt = now()
		st.equipment[id] = e
	})
	return err
}

func (r *equipmentRepo) UpdateCounts(ctx context.Context, e *domain.Equipment) error {
	var err error
	r.with(func(st *state) {
		cur, ok := st.equipment[e.ID]
		if !ok {
			err = fmt.Errorf("equipment %d: %w", e.ID, domain.ErrNotFound)
			return
		}
		cur.QuantityTotal = e.QuantityTotal
		cur.QuantityAvailable = e.QuantityAvailable
		cur.UpdatedAt = now()
		st.equipment[e.ID] = cur
		e.UpdatedAt = cur.UpdatedAt
	})
	return err
}

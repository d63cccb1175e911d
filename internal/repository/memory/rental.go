package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"rentdesk-backend/internal/domain"
)

type rentalRepo struct{ base }

func (r *rentalRepo) Create(ctx context.Context, rt *domain.Rental) error {
	r.with(func(st *state) {
		rt.ID = st.nextID()
		rt.CreatedAt, rt.UpdatedAt = now(), now()
		for i := range rt.Items {
			rt.Items[i].ID = st.nextID()
			rt.Items[i].RentalID = rt.ID
		}
		stored := *rt
		stored.Items = slices.Clone(rt.Items)
		st.rentals[rt.ID] = stored
	})
	return nil
}

func (r *rentalRepo) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	var (
		rt domain.Rental
		ok bool
	)
	r.with(func(st *state) { rt, ok = st.rentals[id] })
	if !ok || rt.IsDeleted {
		return nil, fmt.Errorf("rental %d: %w", id, domain.ErrNotFound)
	}
	rt.Items = slices.Clone(rt.Items)
	return &rt, nil
}

// GetByIDForUpdate needs no extra locking: transactions are already serialised.
func (r *rentalRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error) {
	return r.GetByID(ctx, id)
}

func (r *rentalRepo) List(ctx context.Context, scope domain.Scope, filter domain.RentalFilter, skip, limit int) ([]domain.Rental, error) {
	var out []domain.Rental
	r.with(func(st *state) {
		for _, id := range sortedKeys(st.rentals) {
			rt := st.rentals[id]
			if rt.IsDeleted || !scope.Allows(rt.StoreID) {
				continue
			}
			if filter.Status != "" && rt.Status != filter.Status {
				continue
			}
			if filter.From != nil && rt.DateStart.Before(*filter.From) {
				continue
			}
			if filter.To != nil && rt.DateEnd.After(*filter.To) {
				continue
			}
			rt.Items = slices.Clone(rt.Items)
			out = append(out, rt)
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

func (r *rentalRepo) UpdateStatus(ctx context.Context, id int64, status domain.RentalStatus, comment string) error {
	return r.update(id, func(rt *domain.Rental) {
		rt.Status = status
		rt.Comment = comment
	})
}

func (r *rentalRepo) SoftDelete(ctx context.Context, id int64) error {
	return r.update(id, func(rt *domain.Rental) { rt.IsDeleted = true })
}

func (r *rentalRepo) update(id int64, fn func(rt *domain.Rental)) error {
	var err error
	r.with(func(st *state) {
		rt, ok := st.rentals[id]
		if !ok || rt.IsDeleted {
			err = fmt.Errorf("rental %d: %w", id, domain.ErrNotFound)
			return
		}
		fn(&rt)
		rt.UpdatedAt = now()
		st.rentals[id] = rt
	})
	return err
}

func (r *rentalRepo) MarkOverdue(ctx context.Context, scope domain.Scope, today time.Time) ([]int64, error) {
	var ids []int64
	r.with(func(st *state) {
		for _, id := range sortedKeys(st.rentals) {
			rt := st.rentals[id]
			if rt.IsDeleted || rt.Status != domain.RentalStatusActive || !scope.Allows(rt.StoreID) {
				continue
			}
			if !rt.DateEnd.Before(today) {
				continue
			}
			rt.Status = domain.RentalStatusOverdue
			rt.UpdatedAt = now()
			st.rentals[id] = rt
			ids = append(ids, id)
		}
	})
	return ids, nil
}

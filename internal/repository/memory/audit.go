package memory

import (
	"context"
	"sort"

	"rentdesk-backend/internal/domain"
)

type settlementRepo struct{ base }

func (r *settlementRepo) Create(ctx context.Context, s *domain.Settlement) error {
	r.with(func(st *state) {
		s.ID = st.nextID()
		st.settlements = append(st.settlements, *s)
	})
	return nil
}

func (r *settlementRepo) ListByRental(ctx context.Context, rentalID int64) ([]domain.Settlement, error) {
	var out []domain.Settlement
	r.with(func(st *state) {
		for _, s := range st.settlements {
			if s.RentalID == rentalID {
				out = append(out, s)
			}
		}
	})
	return out, nil
}

type movementRepo struct{ base }

func (r *movementRepo) Create(ctx context.Context, m *domain.EquipmentMovement) error {
	r.with(func(st *state) {
		m.ID = st.nextID()
		st.movements = append(st.movements, *m)
	})
	return nil
}

func (r *movementRepo) ListByEquipment(ctx context.Context, equipmentID int64, limit int) ([]domain.EquipmentMovement, error) {
	var out []domain.EquipmentMovement
	r.with(func(st *state) {
		for _, m := range st.movements {
			if m.EquipmentID == equipmentID {
				out = append(out, m)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

package postgres

import (
	"context"
	"fmt"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type settlementRepository struct {
	db DBTX
}

func NewSettlementRepository(db DBTX) repository.SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) Create(ctx context.Context, s *domain.Settlement) error {
	query := `INSERT INTO rental_settlements (rental_id, method, amount, recorded_at)
	          VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, s.RentalID, s.Method, s.Amount, s.RecordedAt).Scan(&s.ID); err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

func (r *settlementRepository) ListByRental(ctx context.Context, rentalID int64) ([]domain.Settlement, error) {
	query := `SELECT id, rental_id, method, amount, recorded_at FROM rental_settlements WHERE rental_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	defer rows.Close()

	var out []domain.Settlement
	for rows.Next() {
		var s domain.Settlement
		if err := rows.Scan(&s.ID, &s.RentalID, &s.Method, &s.Amount, &s.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

package postgres

import (
	"context"
	"fmt"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type movementRepository struct {
	db DBTX
}

func NewMovementRepository(db DBTX) repository.MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(ctx context.Context, m *domain.EquipmentMovement) error {
	query := `INSERT INTO equipment_movements (equipment_id, rental_id, action, quantity, performed_by, timestamp)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, m.EquipmentID, m.RentalID, m.Action, m.Quantity, m.PerformedBy, m.Timestamp).Scan(&m.ID); err != nil {
		return fmt.Errorf("insert equipment movement: %w", err)
	}
	return nil
}

func (r *movementRepository) ListByEquipment(ctx context.Context, equipmentID int64, limit int) ([]domain.EquipmentMovement, error) {
	query := `SELECT id, equipment_id, rental_id, action, quantity, performed_by, timestamp
	          FROM equipment_movements WHERE equipment_id = $1 ORDER BY timestamp DESC, id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, equipmentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list equipment movements: %w", err)
	}
	defer rows.Close()

	var out []domain.EquipmentMovement
	for rows.Next() {
		var m domain.EquipmentMovement
		if err := rows.Scan(&m.ID, &m.EquipmentID, &m.RentalID, &m.Action, &m.Quantity, &m.PerformedBy, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan equipment movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"

	"github.com/lib/pq"
)

const equipmentColumns = `id, store_id, title, quantity_total, quantity_available, price_per_day, is_deleted, created_at, updated_at`

type equipmentRepository struct {
	db DBTX
}

func NewEquipmentRepository(db DBTX) repository.EquipmentRepository {
	return &equipmentRepository{db: db}
}

func (r *equipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	query := `INSERT INTO equipment (store_id, title, quantity_total, quantity_available, price_per_day, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	now := time.Now().UTC()
	if err := r.db.QueryRowContext(ctx, query, e.StoreID, e.Title, e.QuantityTotal, e.QuantityAvailable, e.PricePerDay, now, now).Scan(&e.ID); err != nil {
		return fmt.Errorf("insert equipment: %w", err)
	}
	e.CreatedAt, e.UpdatedAt = now, now
	return nil
}

func (r *equipmentRepository) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1 AND is_deleted = FALSE`
	e, err := scanEquipment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("equipment %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get equipment %d: %w", id, err)
	}
	return e, nil
}

func (r *equipmentRepository) List(ctx context.Context, scope domain.Scope, skip, limit int) ([]domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE is_deleted = FALSE`
	args := []any{limit, skip}
	if storeID, ok := scope.StoreID(); ok {
		query += ` AND store_id = $3`
		args = append(args, storeID)
	}
	query += ` ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()

	var out []domain.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *equipmentRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE equipment SET is_deleted = TRUE, updated_at = $1 WHERE id = $2 AND is_deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("delete equipment %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("equipment %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *equipmentRepository) LockByIDs(ctx context.Context, ids []int64) ([]domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = ANY($1) AND is_deleted = FALSE ORDER BY id FOR UPDATE`
	logger.DatabaseCall("lock_equipment", query, "ids", ids)
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lock equipment: %w", err)
	}
	defer rows.Close()

	var out []domain.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equipment: %w", err)
	}
	logger.DatabaseResult("lock_equipment", int64(len(out)), nil)
	return out, nil
}

func (r *equipmentRepository) Decrement(ctx context.Context, id int64, qty int) error {
	query := `UPDATE equipment SET quantity_available = quantity_available - $1, updated_at = $2
	          WHERE id = $3 AND quantity_available >= $1`
	logger.DatabaseCall("decrement_equipment", query, "equipment_id", id, "qty", qty)
	res, err := r.db.ExecContext(ctx, query, qty, time.Now().UTC(), id)
	if err != nil {
		logger.DatabaseResult("decrement_equipment", 0, err)
		return fmt.Errorf("decrement equipment %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("decrement_equipment", n, err)
	if err != nil {
		return fmt.Errorf("decrement equipment %d: %w", id, err)
	}
	if n == 0 {
		return &domain.InventoryError{EquipmentID: id, Requested: qty}
	}
	return nil
}

func (r *equipmentRepository) Increment(ctx context.Context, id int64, qty int) error {
	query := `UPDATE equipment SET quantity_available = LEAST(quantity_total, quantity_available + $1), updated_at = $2
	          WHERE id = $3`
	logger.DatabaseCall("increment_equipment", query, "equipment_id", id, "qty", qty)
	res, err := r.db.ExecContext(ctx, query, qty, time.Now().UTC(), id)
	if err != nil {
		logger.DatabaseResult("increment_equipment", 0, err)
		return fmt.Errorf("increment equipment %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("increment_equipment", n, nil)
	if n == 0 {
		return fmt.Errorf("equipment %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *equipmentRepository) UpdateCounts(ctx context.Context, e *domain.Equipment) error {
	query := `UPDATE equipment SET quantity_total = $1, quantity_available = $2, updated_at = $3 WHERE id = $4`
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, e.QuantityTotal, e.QuantityAvailable, now, e.ID)
	if err != nil {
		return fmt.Errorf("update equipment %d: %w", e.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("equipment %d: %w", e.ID, domain.ErrNotFound)
	}
	e.UpdatedAt = now
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEquipment(row rowScanner) (*domain.Equipment, error) {
	e := &domain.Equipment{}
	err := row.Scan(&e.ID, &e.StoreID, &e.Title, &e.QuantityTotal, &e.QuantityAvailable, &e.PricePerDay, &e.IsDeleted, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

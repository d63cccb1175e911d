package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"

	"github.com/lib/pq"
)

const rentalColumns = `id, store_id, client_id, admin_id, date_start, date_end, total_amount, status, COALESCE(comment, ''), is_deleted, created_at, updated_at`

type rentalRepository struct {
	db DBTX
}

func NewRentalRepository(db DBTX) repository.RentalRepository {
	return &rentalRepository{db: db}
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	query := `INSERT INTO rentals (store_id, client_id, admin_id, date_start, date_end, total_amount, status, comment, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, rt.StoreID, rt.ClientID, rt.AdminID, rt.DateStart, rt.DateEnd, rt.TotalAmount, rt.Status, nullableString(rt.Comment), now, now).Scan(&rt.ID)
	if err != nil {
		return fmt.Errorf("insert rental: %w", err)
	}
	rt.CreatedAt, rt.UpdatedAt = now, now

	itemQuery := `INSERT INTO rental_items (rental_id, equipment_id, quantity, requested_quantity, price_per_day, created_at, updated_at)
	              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	for i := range rt.Items {
		it := &rt.Items[i]
		it.RentalID = rt.ID
		if err := r.db.QueryRowContext(ctx, itemQuery, rt.ID, it.EquipmentID, it.Quantity, it.RequestedQuantity, it.PricePerDay, now, now).Scan(&it.ID); err != nil {
			return fmt.Errorf("insert rental item: %w", err)
		}
	}
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	return r.get(ctx, id, false)
}

func (r *rentalRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error) {
	return r.get(ctx, id, true)
}

func (r *rentalRepository) get(ctx context.Context, id int64, forUpdate bool) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1 AND is_deleted = FALSE`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rental %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get rental %d: %w", id, err)
	}

	items, err := r.itemsFor(ctx, []int64{rt.ID})
	if err != nil {
		return nil, err
	}
	rt.Items = items[rt.ID]
	return rt, nil
}

func (r *rentalRepository) List(ctx context.Context, scope domain.Scope, filter domain.RentalFilter, skip, limit int) ([]domain.Rental, error) {
	conds := []string{"is_deleted = FALSE"}
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if storeID, ok := scope.StoreID(); ok {
		add("store_id = $%d", storeID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.From != nil {
		add("date_start >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("date_end <= $%d", *filter.To)
	}

	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE ` + strings.Join(conds, " AND ")
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, skip)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	defer rows.Close()

	var rentals []domain.Rental
	var ids []int64
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rental: %w", err)
		}
		rentals = append(rentals, *rt)
		ids = append(ids, rt.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rentals: %w", err)
	}
	if len(ids) == 0 {
		return rentals, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range rentals {
		rentals[i].Items = items[rentals[i].ID]
	}
	return rentals, nil
}

func (r *rentalRepository) itemsFor(ctx context.Context, rentalIDs []int64) (map[int64][]domain.RentalItem, error) {
	query := `SELECT id, rental_id, equipment_id, quantity, requested_quantity, price_per_day
	          FROM rental_items WHERE rental_id = ANY($1) AND is_deleted = FALSE ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(rentalIDs))
	if err != nil {
		return nil, fmt.Errorf("list rental items: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.RentalItem, len(rentalIDs))
	for rows.Next() {
		var it domain.RentalItem
		if err := rows.Scan(&it.ID, &it.RentalID, &it.EquipmentID, &it.Quantity, &it.RequestedQuantity, &it.PricePerDay); err != nil {
			return nil, fmt.Errorf("scan rental item: %w", err)
		}
		out[it.RentalID] = append(out[it.RentalID], it)
	}
	return out, rows.Err()
}

func (r *rentalRepository) UpdateStatus(ctx context.Context, id int64, status domain.RentalStatus, comment string) error {
	query := `UPDATE rentals SET status = $1, comment = $2, updated_at = $3 WHERE id = $4 AND is_deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, status, nullableString(comment), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update rental %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("rental %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *rentalRepository) SoftDelete(ctx context.Context, id int64) error {
	query := `UPDATE rentals SET is_deleted = TRUE, updated_at = $1 WHERE id = $2 AND is_deleted = FALSE`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("delete rental %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("rental %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *rentalRepository) MarkOverdue(ctx context.Context, scope domain.Scope, today time.Time) ([]int64, error) {
	query := `UPDATE rentals SET status = $1, updated_at = $2
	          WHERE status = $3 AND date_end < $4 AND is_deleted = FALSE`
	args := []any{domain.RentalStatusOverdue, time.Now().UTC(), domain.RentalStatusActive, today}
	if storeID, ok := scope.StoreID(); ok {
		query += ` AND store_id = $5`
		args = append(args, storeID)
	}
	query += ` RETURNING id`

	logger.DatabaseCall("mark_overdue", query, "scope", scope.String(), "today", today.Format("2006-01-02"))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("mark_overdue", 0, err)
		return nil, fmt.Errorf("mark overdue rentals: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan overdue rental: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overdue rentals: %w", err)
	}
	logger.DatabaseResult("mark_overdue", int64(len(ids)), nil)
	return ids, nil
}

func scanRental(row rowScanner) (*domain.Rental, error) {
	rt := &domain.Rental{}
	err := row.Scan(&rt.ID, &rt.StoreID, &rt.ClientID, &rt.AdminID, &rt.DateStart, &rt.DateEnd, &rt.TotalAmount, &rt.Status, &rt.Comment, &rt.IsDeleted, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

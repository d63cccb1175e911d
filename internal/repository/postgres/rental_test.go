package postgres_test

import (
	"context"
	"testing"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	rentalCols = []string{"id", "store_id", "client_id", "admin_id", "date_start", "date_end", "total_amount", "status", "comment", "is_deleted", "created_at", "updated_at"}
	itemCols   = []string{"id", "rental_id", "equipment_id", "quantity", "requested_quantity", "price_per_day"}
)

func TestRentalRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewRentalRepository(db)
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4)
	rt := &domain.Rental{
		StoreID: 2, ClientID: 11, AdminID: 3,
		DateStart: start, DateEnd: end,
		TotalAmount: decimal.NewFromInt(120),
		Status:      domain.RentalStatusBooked,
		Items: []domain.RentalItem{
			{EquipmentID: 5, Quantity: 3, RequestedQuantity: 3, PricePerDay: decimal.NewFromInt(10)},
			{EquipmentID: 6, Quantity: 1, RequestedQuantity: 2, PricePerDay: decimal.Zero},
		},
	}

	mock.ExpectQuery("INSERT INTO rentals").
		WithArgs(int64(2), int64(11), int64(3), start, end, "120", "booked", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery("INSERT INTO rental_items").
		WithArgs(int64(100), int64(5), 3, 3, "10", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1000))
	mock.ExpectQuery("INSERT INTO rental_items").
		WithArgs(int64(100), int64(6), 1, 2, "0", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1001))

	require.NoError(t, repo.Create(context.Background(), rt))
	assert.Equal(t, int64(100), rt.ID)
	assert.Equal(t, int64(1001), rt.Items[1].ID)
	assert.Equal(t, int64(100), rt.Items[1].RentalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_GetByIDForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewRentalRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Loads items", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rentals WHERE id = \\$1 AND is_deleted = FALSE FOR UPDATE").
			WithArgs(int64(100)).
			WillReturnRows(sqlmock.NewRows(rentalCols).AddRow(100, 2, 11, 3, now, now, "120.00", "active", "", false, now, now))
		mock.ExpectQuery("SELECT (.+) FROM rental_items WHERE rental_id = ANY\\(\\$1\\)").
			WithArgs("{100}").
			WillReturnRows(sqlmock.NewRows(itemCols).AddRow(1000, 100, 5, 3, 3, "10.00").AddRow(1001, 100, 6, 1, 2, "0"))

		rt, err := repo.GetByIDForUpdate(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusActive, rt.Status)
		require.Len(t, rt.Items, 2)
		assert.True(t, rt.PartiallyFulfilled())
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM rentals").
			WithArgs(int64(101)).
			WillReturnRows(sqlmock.NewRows(rentalCols))

		_, err := repo.GetByIDForUpdate(ctx, 101)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewRentalRepository(db)
	ctx := context.Background()

	t.Run("Store scope and status", func(t *testing.T) {
		mock.ExpectQuery("WHERE is_deleted = FALSE AND store_id = \\$1 AND status = \\$2 ORDER BY id LIMIT \\$3 OFFSET \\$4").
			WithArgs(int64(2), "booked", 10, 20).
			WillReturnRows(sqlmock.NewRows(rentalCols))

		rentals, err := repo.List(ctx, domain.StoreScope(2), domain.RentalFilter{Status: domain.RentalStatusBooked}, 20, 10)
		require.NoError(t, err)
		assert.Empty(t, rentals)
	})

	t.Run("All stores with date range", func(t *testing.T) {
		from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
		now := time.Now()
		mock.ExpectQuery("WHERE is_deleted = FALSE AND date_start >= \\$1 AND date_end <= \\$2 ORDER BY id LIMIT \\$3 OFFSET \\$4").
			WithArgs(from, to, 100, 0).
			WillReturnRows(sqlmock.NewRows(rentalCols).AddRow(7, 2, 11, 3, from, to, "0", "booked", "note", false, now, now))
		mock.ExpectQuery("FROM rental_items").
			WithArgs("{7}").
			WillReturnRows(sqlmock.NewRows(itemCols).AddRow(70, 7, 5, 1, 1, "3"))

		rentals, err := repo.List(ctx, domain.AllStores(), domain.RentalFilter{From: &from, To: &to}, 0, 100)
		require.NoError(t, err)
		require.Len(t, rentals, 1)
		assert.Equal(t, "note", rentals[0].Comment)
		assert.Len(t, rentals[0].Items, 1)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewRentalRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE rentals SET status = \\$1, comment = \\$2").
		WithArgs("completed", "cash:50.0; card:0.0", sqlmock.AnyArg(), int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateStatus(ctx, 100, domain.RentalStatusCompleted, "cash:50.0; card:0.0"))

	mock.ExpectExec("UPDATE rentals SET is_deleted = TRUE").
		WithArgs(sqlmock.AnyArg(), int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SoftDelete(ctx, 100), domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_MarkOverdue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewRentalRepository(db)
	ctx := context.Background()
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("Store scope", func(t *testing.T) {
		mock.ExpectQuery("UPDATE rentals SET status = \\$1(.+)WHERE status = \\$3 AND date_end < \\$4 AND is_deleted = FALSE AND store_id = \\$5 RETURNING id").
			WithArgs("overdue", sqlmock.AnyArg(), "active", today, int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4).AddRow(9))

		ids, err := repo.MarkOverdue(ctx, domain.StoreScope(2), today)
		require.NoError(t, err)
		assert.Equal(t, []int64{4, 9}, ids)
	})

	t.Run("Second pass changes nothing", func(t *testing.T) {
		mock.ExpectQuery("UPDATE rentals SET status").
			WithArgs("overdue", sqlmock.AnyArg(), "active", today).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		ids, err := repo.MarkOverdue(ctx, domain.AllStores(), today)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

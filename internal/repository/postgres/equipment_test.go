package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var equipmentCols = []string{"id", "store_id", "title", "quantity_total", "quantity_available", "price_per_day", "is_deleted", "created_at", "updated_at"}

func TestEquipmentRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewEquipmentRepository(db)
	e := &domain.Equipment{StoreID: 2, Title: "Drill", QuantityTotal: 5, QuantityAvailable: 5, PricePerDay: decimal.RequireFromString("10.50")}

	mock.ExpectQuery("INSERT INTO equipment").
		WithArgs(int64(2), "Drill", 5, 5, "10.5", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41))

	require.NoError(t, repo.Create(context.Background(), e))
	assert.Equal(t, int64(41), e.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewEquipmentRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM equipment WHERE id = \\$1 AND is_deleted = FALSE").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(equipmentCols).AddRow(3, 2, "Saw", 4, 1, "7.25", false, now, now))

		e, err := repo.GetByID(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, "Saw", e.Title)
		assert.Equal(t, 3, e.Rented())
		assert.True(t, decimal.RequireFromString("7.25").Equal(e.PricePerDay))
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM equipment").
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows(equipmentCols))

		_, err := repo.GetByID(ctx, 4)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEquipmentRepository_LockByIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewEquipmentRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM equipment WHERE id = ANY\\(\\$1\\) AND is_deleted = FALSE ORDER BY id FOR UPDATE").
		WithArgs("{1,5}").
		WillReturnRows(sqlmock.NewRows(equipmentCols).
			AddRow(1, 2, "Drill", 5, 5, "10", false, now, now).
			AddRow(5, 2, "Saw", 3, 0, "4", false, now, now))

	rows, err := repo.LockByIDs(context.Background(), []int64{1, 5})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(5), rows[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentRepository_Decrement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewEquipmentRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE equipment SET quantity_available = quantity_available - \\$1").
			WithArgs(3, sqlmock.AnyArg(), int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Decrement(ctx, 9, 3))
	})

	t.Run("Guard rejects overdraw", func(t *testing.T) {
		mock.ExpectExec("WHERE id = \\$3 AND quantity_available >= \\$1").
			WithArgs(3, sqlmock.AnyArg(), int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Decrement(ctx, 9, 3)
		assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
	})

	t.Run("Driver error", func(t *testing.T) {
		mock.ExpectExec("UPDATE equipment").
			WillReturnError(errors.New("conn closed"))

		err := repo.Decrement(ctx, 9, 3)
		assert.ErrorContains(t, err, "conn closed")
		assert.NotErrorIs(t, err, domain.ErrInsufficientInventory)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentRepository_Increment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewEquipmentRepository(db)

	mock.ExpectExec("SET quantity_available = LEAST\\(quantity_total, quantity_available \\+ \\$1\\)").
		WithArgs(2, sqlmock.AnyArg(), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Increment(context.Background(), 9, 2))

	mock.ExpectExec("UPDATE equipment").
		WithArgs(2, sqlmock.AnyArg(), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Increment(context.Background(), 10, 2), domain.ErrNotFound)
}

func TestEquipmentRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewEquipmentRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Store scope", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM equipment WHERE is_deleted = FALSE AND store_id = \\$3 ORDER BY id LIMIT \\$1 OFFSET \\$2").
			WithArgs(10, 0, int64(2)).
			WillReturnRows(sqlmock.NewRows(equipmentCols).
				AddRow(1, 2, "Drill", 5, 5, "10", false, now, now).
				AddRow(2, 2, "Saw", 3, 1, "7", false, now, now))

		list, err := repo.List(ctx, domain.StoreScope(2), 0, 10)
		require.NoError(t, err)
		assert.Len(t, list, 2)
		assert.Equal(t, "Saw", list[1].Title)
	})

	t.Run("All stores", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM equipment WHERE is_deleted = FALSE ORDER BY id").
			WithArgs(5, 5).
			WillReturnRows(sqlmock.NewRows(equipmentCols))

		list, err := repo.List(ctx, domain.AllStores(), 5, 5)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEquipmentRepository_SoftDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewEquipmentRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE equipment SET is_deleted = TRUE").
		WithArgs(sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SoftDelete(ctx, 3))

	mock.ExpectExec("UPDATE equipment SET is_deleted = TRUE").
		WithArgs(sqlmock.AnyArg(), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SoftDelete(ctx, 4), domain.ErrNotFound)

	mock.ExpectExec("UPDATE equipment SET is_deleted = TRUE").
		WithArgs(sqlmock.AnyArg(), int64(5)).
		WillReturnError(errors.New("conn reset"))
	assert.Error(t, repo.SoftDelete(ctx, 5))

	assert.NoError(t, mock.ExpectationsWereMet())
}

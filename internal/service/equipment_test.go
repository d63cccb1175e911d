package service_test

import (
	"context"
	"testing"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository/memory"
	"rentdesk-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquipmentService(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := service.NewEquipmentService(store)
	scope := domain.StoreScope(storeID)

	t.Run("AddEquipment starts fully available", func(t *testing.T) {
		e := &domain.Equipment{StoreID: storeID, Title: "  Scaffold ", QuantityTotal: 6, PricePerDay: decimal.NewFromInt(15)}
		require.NoError(t, svc.AddEquipment(ctx, e))
		assert.NotZero(t, e.ID)
		assert.Equal(t, "Scaffold", e.Title)
		assert.Equal(t, 6, e.QuantityAvailable)

		got, err := svc.GetEquipment(ctx, e.ID, scope)
		require.NoError(t, err)
		assert.Equal(t, 6, got.QuantityTotal)

		_, err = svc.GetEquipment(ctx, e.ID, domain.StoreScope(storeID+1))
		assert.ErrorIs(t, err, domain.ErrOutOfScope)
	})

	t.Run("AddEquipment validation", func(t *testing.T) {
		assert.ErrorIs(t, svc.AddEquipment(ctx, &domain.Equipment{Title: "x", QuantityTotal: 1}), domain.ErrInvalidScope)
		assert.ErrorIs(t, svc.AddEquipment(ctx, &domain.Equipment{StoreID: storeID, QuantityTotal: 1}), domain.ErrInvalidRequest)
		assert.ErrorIs(t, svc.AddEquipment(ctx, &domain.Equipment{StoreID: storeID, Title: "x", QuantityTotal: -1}), domain.ErrInvalidRequest)
	})

	t.Run("ResizeTotal keeps rented units", func(t *testing.T) {
		e := &domain.Equipment{StoreID: storeID, Title: "Pump", QuantityTotal: 10, PricePerDay: decimal.NewFromInt(8)}
		require.NoError(t, svc.AddEquipment(ctx, e))
		rentals := newRentalService(store, service.RentalPolicy{})
		_, err := rentals.CreateRental(ctx, bookingFor(line(e, 3)))
		require.NoError(t, err)

		resized, err := svc.ResizeTotal(ctx, e.ID, scope, 12)
		require.NoError(t, err)
		assert.Equal(t, 12, resized.QuantityTotal)
		assert.Equal(t, 9, resized.QuantityAvailable)

		resized, err = svc.ResizeTotal(ctx, e.ID, scope, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, resized.QuantityAvailable)

		_, err = svc.ResizeTotal(ctx, e.ID, scope, -1)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		_, err = svc.ResizeTotal(ctx, e.ID, domain.StoreScope(storeID+1), 4)
		assert.ErrorIs(t, err, domain.ErrOutOfScope)
	})

	t.Run("ListMovements is scoped", func(t *testing.T) {
		_, err := svc.ListMovements(ctx, 9999, scope, 10)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ListEquipment is scoped", func(t *testing.T) {
		other := &domain.Equipment{StoreID: storeID + 1, Title: "Crane", QuantityTotal: 1}
		require.NoError(t, svc.AddEquipment(ctx, other))

		list, err := svc.ListEquipment(ctx, scope, 0, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, list)
		for _, e := range list {
			assert.Equal(t, storeID, e.StoreID)
		}

		all, err := svc.ListEquipment(ctx, domain.AllStores(), 0, 0)
		require.NoError(t, err)
		assert.Len(t, all, len(list)+1)

		_, err = svc.ListEquipment(ctx, domain.Scope{}, 0, 10)
		assert.ErrorIs(t, err, domain.ErrInvalidScope)
	})

	t.Run("DeleteEquipment hides the pool and keeps returns working", func(t *testing.T) {
		e := &domain.Equipment{StoreID: storeID, Title: "Lift", QuantityTotal: 2, PricePerDay: decimal.NewFromInt(50)}
		require.NoError(t, svc.AddEquipment(ctx, e))
		rentals := newRentalService(store, service.RentalPolicy{})
		r, err := rentals.CreateRental(ctx, bookingFor(line(e, 1)))
		require.NoError(t, err)
		_, err = rentals.ActivateBooking(ctx, r.ID, scope)
		require.NoError(t, err)

		assert.ErrorIs(t, svc.DeleteEquipment(ctx, e.ID, domain.StoreScope(storeID+1)), domain.ErrOutOfScope)
		require.NoError(t, svc.DeleteEquipment(ctx, e.ID, scope))

		_, err = svc.GetEquipment(ctx, e.ID, scope)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, svc.DeleteEquipment(ctx, e.ID, scope), domain.ErrNotFound)

		returned, err := rentals.ReturnRental(ctx, r.ID, scope, decimal.Zero, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusCompleted, returned.Status)
	})
}

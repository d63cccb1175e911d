package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository/memory"
	"rentdesk-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRentalService_ActivateBooking(t *testing.T) {
	ctx := context.Background()
	scope := domain.StoreScope(storeID)

	t.Run("Decrements every line", func(t *testing.T) {
		store := memory.NewStore()
		svc := newRentalService(store, service.RentalPolicy{})
		drill := seedEquipment(t, store, storeID, "Drill", 10, 10, "10.00")
		saw := seedEquipment(t, store, storeID, "Saw", 10, 10, "5.00")

		r, err := svc.CreateRental(ctx, bookingFor(line(drill, 2), line(saw, 1)))
		require.NoError(t, err)
		assert.Equal(t, 8, available(t, store, drill.ID))
		assert.Equal(t, 9, available(t, store, saw.ID))

		active, err := svc.ActivateBooking(ctx, r.ID, scope)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusActive, active.Status)
		assert.Equal(t, 6, available(t, store, drill.ID))
		assert.Equal(t, 8, available(t, store, saw.ID))

		moves, err := store.Repos().Movements.ListByEquipment(ctx, drill.ID, 10)
		require.NoError(t, err)
		require.Len(t, moves, 1)
		assert.Equal(t, domain.MovementIssued, moves[0].Action)
		assert.Equal(t, int64(3), moves[0].PerformedBy)
	})

	t.Run("All or nothing", func(t *testing.T) {
		store := memory.NewStore()
		svc := newRentalService(store, service.RentalPolicy{})
		drill := seedEquipment(t, store, storeID, "Drill", 10, 10, "10.00")
		saw := seedEquipment(t, store, storeID, "Saw", 4, 4, "5.00")

		r, err := svc.CreateRental(ctx, bookingFor(line(drill, 2), line(saw, 3)))
		require.NoError(t, err)
		// saw now has 1 available, the booking needs 3 more on activation

		_, err = svc.ActivateBooking(ctx, r.ID, scope)
		assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
		assert.Equal(t, 8, available(t, store, drill.ID))
		assert.Equal(t, 1, available(t, store, saw.ID))

		got, err := svc.GetRental(ctx, r.ID, scope)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusBooked, got.Status)
	})

	t.Run("Lines sharing equipment are checked together", func(t *testing.T) {
		store := memory.NewStore()
		svc := newRentalService(store, service.RentalPolicy{})
		drill := seedEquipment(t, store, storeID, "Drill", 6, 6, "10.00")

		r, err := svc.CreateRental(ctx, bookingFor(line(drill, 2), line(drill, 1)))
		require.NoError(t, err)
		require.Equal(t, 3, available(t, store, drill.ID))
		require.NoError(t, svc.DeleteRental(ctx, r.ID, scope))

		r, err = svc.CreateRental(ctx, bookingFor(line(drill, 1), line(drill, 1)))
		require.NoError(t, err)
		require.Equal(t, 1, available(t, store, drill.ID))

		_, err = svc.ActivateBooking(ctx, r.ID, scope)
		assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
		assert.Equal(t, 1, available(t, store, drill.ID))
	})

	t.Run("Only booked rentals activate", func(t *testing.T) {
		store := memory.NewStore()
		svc := newRentalService(store, service.RentalPolicy{})
		drill := seedEquipment(t, store, storeID, "Drill", 10, 10, "10.00")

		r, err := svc.CreateRental(ctx, bookingFor(line(drill, 1)))
		require.NoError(t, err)
		_, err = svc.ActivateBooking(ctx, r.ID, scope)
		require.NoError(t, err)

		_, err = svc.ActivateBooking(ctx, r.ID, scope)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
		var trErr *domain.TransitionError
		require.True(t, errors.As(err, &trErr))
		assert.Equal(t, domain.RentalStatusActive, trErr.From)

		_, err = svc.ActivateBooking(ctx, 4242, scope)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Movement failure rolls back", func(t *testing.T) {
		base := memory.NewStore()
		drill := seedEquipment(t, base, storeID, "Drill", 10, 10, "10.00")
		r, err := newRentalService(base, service.RentalPolicy{}).CreateRental(ctx, bookingFor(line(drill, 2)))
		require.NoError(t, err)

		movements := new(MockMovementRepo)
		movements.On("Create", mock.Anything, mock.AnythingOfType("*domain.EquipmentMovement")).Return(errors.New("disk full"))
		svc := service.NewRentalService(&faultyStore{Store: base, movements: movements}, service.RentalPolicy{}, fixedClock)

		_, err = svc.ActivateBooking(ctx, r.ID, scope)
		assert.ErrorContains(t, err, "disk full")
		assert.Equal(t, 8, available(t, base, drill.ID))
		got, err := base.Repos().Rentals.GetByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusBooked, got.Status)
	})
}

func TestRentalService_ReturnRental(t *testing.T) {
	ctx := context.Background()
	scope := domain.StoreScope(storeID)

	t.Run("Releases lines and records settlement", func(t *testing.T) {
		store := memory.NewStore()
		svc := newRentalService(store, service.RentalPolicy{})
		drill := seedEquipment(t, store, storeID, "Drill", 10, 10, "10.00")
		saw := seedEquipment(t, store, storeID, "Saw", 10, 10, "5.00")

		req := bookingFor(line(drill, 2), line(saw, 1))
		req.Status = domain.RentalStatusActive
		r, err := svc.CreateRental(ctx, req)
		require.NoError(t, err)
		drillBefore, sawBefore := available(t, store, drill.ID), available(t, store, saw.ID)

		done, err := svc.ReturnRental(ctx, r.ID, scope, decimal.NewFromInt(50), decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusCompleted, done.Status)
		assert.Equal(t, "cash:50.0; card:0.0", done.Comment)
		assert.Equal(t, drillBefore+2, available(t, store, drill.ID))
		assert.Equal(t, sawBefore+1, available(t, store, saw.ID))

		settlements, err := svc.ListSettlements(ctx, r.ID, scope)
		require.NoError(t, err)
		require.Len(t, settlements, 1)
		assert.Equal(t, domain.PaymentMethodCash, settlements[0].Method)
		assert.True(t, decimal.NewFromInt(50).Equal(settlements[0].Amount))

		moves, err := store.Repos().Movements.ListByEquipment(ctx, saw.ID, 10)
		require.NoError(t, err)
		actions := []domain.MovementAction{}
		for _, m := range moves {
			actions = append(actions, m.Action)
		}
		assert.ElementsMatch(t, []domain.MovementAction{domain.MovementIssued, domain.MovementReturned}, actions)
	})

	t.Run("Appends to existing comment and clamps amounts", func(t *testing.T) {
		store := memory.NewStore()
		svc := newRentalService(store, service.RentalPolicy{})
		drill := seedEquipment(t, store, storeID, "Drill", 10, 10, "10.00")

		req := bookingFor(line(drill, 1))
		req.Status = domain.RentalStatusActive
		req.Comment = "deposit taken"
		r, err := svc.CreateRental(ctx, req)
		require.NoError(t, err)

		done, err := svc.ReturnRental(ctx, r.ID, scope, decimal.NewFromInt(-5), decimal.RequireFromString("12.5"))
		require.NoError(t, err)
		assert.Equal(t, "deposit taken | cash:0.0; card:12.5", done.Comment)

		settlements, err := svc.ListSettlements(ctx, r.ID, scope)
		require.NoError(t, err)
		require.Len(t, settlements, 1)
		assert.Equal(t, domain.PaymentMethodCard, settlements[0].Method)
	})

	t.Run("Booked and completed rentals are not returnable", func(t *testing.T) {
		store := memory.NewStore()
		svc := newRentalService(store, service.RentalPolicy{})
		drill := seedEquipment(t, store, storeID, "Drill", 10, 10, "10.00")

		r, err := svc.CreateRental(ctx, bookingFor(line(drill, 1)))
		require.NoError(t, err)
		_, err = svc.ReturnRental(ctx, r.ID, scope, decimal.Zero, decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
		assert.Equal(t, 9, available(t, store, drill.ID))

		_, err = svc.ActivateBooking(ctx, r.ID, scope)
		require.NoError(t, err)
		_, err = svc.ReturnRental(ctx, r.ID, scope, decimal.Zero, decimal.Zero)
		require.NoError(t, err)
		_, err = svc.ReturnRental(ctx, r.ID, scope, decimal.Zero, decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})

	t.Run("Overdue return follows policy", func(t *testing.T) {
		for _, tc := range []struct {
			name   string
			strict bool
		}{{"lenient", false}, {"strict", true}} {
			t.Run(tc.name, func(t *testing.T) {
				store := memory.NewStore()
				svc := newRentalService(store, service.RentalPolicy{StrictReturnFromActive: tc.strict})
				drill := seedEquipment(t, store, storeID, "Drill", 10, 10, "10.00")

				req := bookingFor(line(drill, 1))
				req.Status = domain.RentalStatusActive
				r, err := svc.CreateRental(ctx, req)
				require.NoError(t, err)
				n, err := svc.SweepOverdue(ctx, scope, fixedNow)
				require.NoError(t, err)
				require.Equal(t, 1, n)

				_, err = svc.ReturnRental(ctx, r.ID, scope, decimal.Zero, decimal.Zero)
				if tc.strict {
					assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})

	t.Run("Round trip restores the pool", func(t *testing.T) {
		store := memory.NewStore()
		svc := newRentalService(store, service.RentalPolicy{})
		drill := seedEquipment(t, store, storeID, "Drill", 10, 10, "10.00")

		req := bookingFor(line(drill, 4))
		req.Status = domain.RentalStatusActive
		r, err := svc.CreateRental(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 6, available(t, store, drill.ID))

		_, err = svc.ReturnRental(ctx, r.ID, scope, decimal.Zero, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, 10, available(t, store, drill.ID))
	})

	t.Run("Release never exceeds total", func(t *testing.T) {
		store := memory.NewStore()
		svc := newRentalService(store, service.RentalPolicy{})
		eqSvc := service.NewEquipmentService(store)
		drill := seedEquipment(t, store, storeID, "Drill", 10, 10, "10.00")

		r, err := svc.CreateRental(ctx, bookingFor(line(drill, 4)))
		require.NoError(t, err)
		_, err = svc.ActivateBooking(ctx, r.ID, scope)
		require.NoError(t, err)
		// 8 out of 10 are taken now; shrink the pool to the rented units
		_, err = eqSvc.ResizeTotal(ctx, drill.ID, scope, 8)
		require.NoError(t, err)

		_, err = svc.ReturnRental(ctx, r.ID, scope, decimal.Zero, decimal.Zero)
		require.NoError(t, err)
		e, err := store.Repos().Equipment.GetByID(ctx, drill.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, e.QuantityAvailable)
		assert.LessOrEqual(t, e.QuantityAvailable, e.QuantityTotal)
	})
}

func TestRentalService_SweepOverdue(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newRentalService(store, service.RentalPolicy{})
	drill := seedEquipment(t, store, storeID, "Drill", 10, 10, "10.00")
	other := seedEquipment(t, store, storeID+1, "Drill", 10, 10, "10.00")

	active := func(e *domain.Equipment, sid int64, end int) int64 {
		req := bookingFor(line(e, 1))
		req.StoreID = sid
		req.Status = domain.RentalStatusActive
		req.DateEnd = day(2024, 3, end)
		r, err := svc.CreateRental(ctx, req)
		require.NoError(t, err)
		return r.ID
	}
	yesterday := active(drill, storeID, 14)
	today := active(drill, storeID, 15)
	foreign := active(other, storeID+1, 14)

	n, err := svc.SweepOverdue(ctx, domain.StoreScope(storeID), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.SweepOverdue(ctx, domain.StoreScope(storeID), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := svc.GetRental(ctx, yesterday, domain.AllStores())
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusOverdue, got.Status)
	got, err = svc.GetRental(ctx, today, domain.AllStores())
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusActive, got.Status)
	got, err = svc.GetRental(ctx, foreign, domain.AllStores())
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusActive, got.Status)

	n, err = svc.SweepOverdue(ctx, domain.AllStores(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.SweepOverdue(ctx, domain.Scope{}, fixedNow)
	assert.ErrorIs(t, err, domain.ErrInvalidScope)
}

func TestRentalService_ConcurrentReservations(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newRentalService(store, service.RentalPolicy{})
	drill := seedEquipment(t, store, storeID, "Drill", 20, 20, "10.00")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		allocated int
		failures  int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := svc.CreateRental(ctx, bookingFor(line(drill, 1)))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
				failures++
				return
			}
			allocated += r.Items[0].Quantity
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, allocated)
	assert.Equal(t, 30, failures)
	assert.Equal(t, 0, available(t, store, drill.ID))
}

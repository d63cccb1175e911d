package service_test

import (
	"context"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/repository/memory"

	"github.com/stretchr/testify/mock"
)

// MockRentalRepo overrides selected calls; everything else reaches the
// embedded repository of the running transaction.
type MockRentalRepo struct {
	repository.RentalRepository
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, r *domain.Rental) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

type MockMovementRepo struct {
	repository.MovementRepository
	mock.Mock
}

func (m *MockMovementRepo) Create(ctx context.Context, mv *domain.EquipmentMovement) error {
	args := m.Called(ctx, mv)
	return args.Error(0)
}

// faultyStore routes selected repositories of every transaction through mocks.
type faultyStore struct {
	*memory.Store
	rentals   *MockRentalRepo
	movements *MockMovementRepo
}

func (s *faultyStore) RunInTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return s.Store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if s.rentals != nil {
			s.rentals.RentalRepository = repos.Rentals
			repos.Rentals = s.rentals
		}
		if s.movements != nil {
			s.movements.MovementRepository = repos.Movements
			repos.Movements = s.movements
		}
		return fn(ctx, repos)
	})
}

// Package memory is an in-process Store. Transactions run one at a time on a
// private copy of the data that replaces the live copy only on success, so a
// failed transaction leaves nothing behind.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type state struct {
	equipment   map[int64]domain.Equipment
	rentals     map[int64]domain.Rental
	settlements []domain.Settlement
	movements   []domain.EquipmentMovement
	lastID      int64
}

func (s *state) clone() *state {
	return &state{
		equipment:   maps.Clone(s.equipment),
		rentals:     maps.Clone(s.rentals),
		settlements: slices.Clone(s.settlements),
		movements:   slices.Clone(s.movements),
		lastID:      s.lastID,
	}
}

func (s *state) nextID() int64 {
	s.lastID++
	return s.lastID
}

type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: &state{
		equipment: make(map[int64]domain.Equipment),
		rentals:   make(map[int64]domain.Rental),
	}}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, reposFor(work, noLock{})); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Repos returns repositories that each lock the store for a single call.
func (s *Store) Repos() repository.Repositories {
	return reposFor(liveState{s}, &s.mu)
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

type stateSource interface {
	get() *state
}

func (s *state) get() *state { return s }

type liveState struct{ s *Store }

func (l liveState) get() *state { return l.s.state }

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

type base struct {
	src stateSource
	mu  sync.Locker
}

func (b base) with(fn func(st *state)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.src.get())
}

func reposFor(src stateSource, mu sync.Locker) repository.Repositories {
	b := base{src: src, mu: mu}
	return repository.Repositories{
		Equipment:   &equipmentRepo{b},
		Rentals:     &rentalRepo{b},
		Settlements: &settlementRepo{b},
		Movements:   &movementRepo{b},
	}
}

func now() time.Time { return time.Now().UTC() }

func sortedKeys[V any](m map[int64]V) []int64 {
	return slices.Sorted(maps.Keys(m))
}

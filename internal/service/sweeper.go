package service

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/utils"
)

// Sweeper reclassifies active rentals whose end date has passed as overdue.
// It is a single conditional UPDATE, so running it again changes nothing.
type Sweeper struct {
	store repository.Store
}

func NewSweeper(store repository.Store) *Sweeper {
	return &Sweeper{store: store}
}

// Sweep marks rentals in scope with date_end before today's date. Only the
// calendar date of today is used.
func (s *Sweeper) Sweep(ctx context.Context, scope domain.Scope, today time.Time) (int, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	day := utils.DateOnly(today)

	var ids []int64
	err := s.store.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ids, err = repos.Rentals.MarkOverdue(ctx, scope, day)
		return err
	})
	if err != nil {
		logger.ErrorContext(ctx, "Overdue sweep failed", "scope", scope.String(), "today", day.Format(utils.DateLayout), "error", err)
		return 0, err
	}
	if len(ids) > 0 {
		logger.InfoContext(ctx, "Marked rentals overdue", "scope", scope.String(), "count", len(ids), "rentalIDs", ids)
	}
	return len(ids), nil
}

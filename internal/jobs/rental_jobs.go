package jobs

import (
	"context"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/utils"
)

// MarkOverdueRentals marks active rentals of every store as overdue once
// their end date has passed
func (jr *JobRunner) MarkOverdueRentals() {
	jr.runWithRecovery("MarkOverdueRentals", func() {
		ctx := context.Background()
		today := utils.DateOnly(jr.now())

		count, err := jr.services.Rental.SweepOverdue(ctx, domain.AllStores(), today)
		if err != nil {
			logger.Error("Failed to mark overdue rentals", "error", err)
			return
		}

		logger.Info("Marked rentals as overdue", "count", count, "today", today.Format(utils.DateLayout))
	})
}

package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"rentdesk-backend/internal/domain"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// ParseDate converts a yyyy-mm-dd string into a UTC midnight time.
func ParseDate(dateStr string) (time.Time, error) {
	parts := strings.Split(dateStr, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year: %v", err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month: %v", err)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day: %v", err)
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if day < 1 || day > DaysInMonth(year, month) {
		return time.Time{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateOnly drops the clock part, keeping the calendar date of t.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RentalDays is the number of billable days between start and end, at least 1.
// An end before the start is rejected rather than billed as a single day.
func RentalDays(start, end time.Time) (int, error) {
	s, e := DateOnly(start), DateOnly(end)
	if e.Before(s) {
		return 0, fmt.Errorf("%w: %s < %s", domain.ErrInvalidDateRange, e.Format(DateLayout), s.Format(DateLayout))
	}
	days := int(e.Sub(s).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days, nil
}

// RentalTotal sums quantity x price_per_day x days over the booked lines.
func RentalTotal(items []domain.RentalItem, days int) decimal.Decimal {
	total := decimal.Zero
	d := decimal.NewFromInt(int64(days))
	for _, it := range items {
		total = total.Add(it.PricePerDay.Mul(decimal.NewFromInt(int64(it.Quantity))).Mul(d))
	}
	return total
}

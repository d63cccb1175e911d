package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrOutOfScope             = fmt.Errorf("%w: outside store scope", ErrNotFound)
	ErrInsufficientInventory  = errors.New("insufficient inventory")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidDateRange       = errors.New("date_end is before date_start")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrInvalidScope           = errors.New("invalid store scope")
)

// InventoryError names the equipment that could not be allocated.
type InventoryError struct {
	EquipmentID int64
	Title       string
	Available   int
	Requested   int
}

func (e *InventoryError) Error() string {
	return fmt.Sprintf("insufficient equipment %q (id %d): available %d, requested %d", e.Title, e.EquipmentID, e.Available, e.Requested)
}

func (e *InventoryError) Unwrap() error { return ErrInsufficientInventory }

type TransitionError struct {
	RentalID int64
	From     RentalStatus
	Action   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s rental %d in status %s", e.Action, e.RentalID, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidStateTransition }

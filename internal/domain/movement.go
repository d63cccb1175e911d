package domain

import "time"

type MovementAction string

const (
	MovementIssued   MovementAction = "issued"
	MovementReturned MovementAction = "returned"
)

type EquipmentMovement struct {
	ID          int64          `json:"id"`
	EquipmentID int64          `json:"equipment_id"`
	RentalID    *int64         `json:"rental_id,omitempty"`
	Action      MovementAction `json:"action"`
	Quantity    int            `json:"quantity"`
	PerformedBy int64          `json:"performed_by"`
	Timestamp   time.Time      `json:"timestamp"`
}

package http

import (
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/utils"

	"github.com/shopspring/decimal"
)

type rentalItemRequest struct {
	EquipmentID int64           `json:"equipment_id"`
	Quantity    int             `json:"quantity"`
	PricePerDay decimal.Decimal `json:"price_per_day"`
}

type createRentalRequest struct {
	StoreID     int64               `json:"store_id"` // honoured for super admins only
	ClientID    int64               `json:"client_id"`
	DateStart   string              `json:"date_start"`
	DateEnd     string              `json:"date_end"`
	Items       []rentalItemRequest `json:"items"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Status      string              `json:"status"`
	Comment     string              `json:"comment"`
}

type returnRentalRequest struct {
	Cash *decimal.Decimal `json:"cash"`
	Card *decimal.Decimal `json:"card"`
}

type sweepRequest struct {
	Today string `json:"today"`
}

type createEquipmentRequest struct {
	StoreID       int64           `json:"store_id"`
	Title         string          `json:"title"`
	QuantityTotal int             `json:"quantity_total"`
	PricePerDay   decimal.Decimal `json:"price_per_day"`
}

type resizeEquipmentRequest struct {
	QuantityTotal *int `json:"quantity_total"`
}

type rentalItemResponse struct {
	ID                int64           `json:"id"`
	EquipmentID       int64           `json:"equipment_id"`
	Quantity          int             `json:"quantity"`
	RequestedQuantity int             `json:"requested_quantity"`
	PricePerDay       decimal.Decimal `json:"price_per_day"`
}

type rentalResponse struct {
	ID                 int64                `json:"id"`
	StoreID            int64                `json:"store_id"`
	ClientID           int64                `json:"client_id"`
	AdminID            int64                `json:"admin_id"`
	DateStart          string               `json:"date_start"`
	DateEnd            string               `json:"date_end"`
	TotalAmount        decimal.Decimal      `json:"total_amount"`
	Status             domain.RentalStatus  `json:"status"`
	Comment            string               `json:"comment"`
	PartiallyFulfilled bool                 `json:"partially_fulfilled"`
	Items              []rentalItemResponse `json:"items"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

func toRentalResponse(r *domain.Rental) rentalResponse {
	items := make([]rentalItemResponse, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, rentalItemResponse{
			ID:                it.ID,
			EquipmentID:       it.EquipmentID,
			Quantity:          it.Quantity,
			RequestedQuantity: it.RequestedQuantity,
			PricePerDay:       it.PricePerDay,
		})
	}
	return rentalResponse{
		ID:                 r.ID,
		StoreID:            r.StoreID,
		ClientID:           r.ClientID,
		AdminID:            r.AdminID,
		DateStart:          r.DateStart.Format(utils.DateLayout),
		DateEnd:            r.DateEnd.Format(utils.DateLayout),
		TotalAmount:        r.TotalAmount,
		Status:             r.Status,
		Comment:            r.Comment,
		PartiallyFulfilled: r.PartiallyFulfilled(),
		Items:              items,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func toRentalList(rentals []domain.Rental) []rentalResponse {
	out := make([]rentalResponse, 0, len(rentals))
	for i := range rentals {
		out = append(out, toRentalResponse(&rentals[i]))
	}
	return out
}

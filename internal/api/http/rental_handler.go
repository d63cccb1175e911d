package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/idempotency"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/service"
	"rentdesk-backend/internal/utils"

	"github.com/shopspring/decimal"
)

const idempotencyHeader = "Idempotency-Key"

type RentalHandler struct {
	svc  service.RentalService
	idem idempotency.Store
	now  func() time.Time
}

// POST /api/v1/rentals
func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRentalRequest
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	req, err := h.toDomain(principal(r), body)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	key := r.Header.Get(idempotencyHeader)
	if key == "" {
		h.create(w, r, req)
		return
	}

	scopedKey := fmt.Sprintf("rental:%d:%s", req.StoreID, key)
	claimed, err := h.idem.Claim(r.Context(), scopedKey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !claimed {
		h.replay(w, r, scopedKey)
		return
	}

	rental, ok := h.create(w, r, req)
	if !ok {
		if err := h.idem.Release(context.WithoutCancel(r.Context()), scopedKey); err != nil {
			logger.WarnContext(r.Context(), "Failed to release idempotency key", "key", key, "error", err)
		}
		return
	}
	if err := h.idem.Complete(context.WithoutCancel(r.Context()), scopedKey, strconv.FormatInt(rental.ID, 10)); err != nil {
		logger.WarnContext(r.Context(), "Failed to store idempotency result", "key", key, "error", err)
	}
}

func (h *RentalHandler) create(w http.ResponseWriter, r *http.Request, req domain.RentalRequest) (*domain.Rental, bool) {
	rental, err := h.svc.CreateRental(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	w.Header().Set("Location", "/api/v1/rentals/"+strconv.FormatInt(rental.ID, 10))
	writeJSON(w, http.StatusCreated, toRentalResponse(rental))
	return rental, true
}

// replay answers a retried request with the rental the first one created.
func (h *RentalHandler) replay(w http.ResponseWriter, r *http.Request, key string) {
	res, err := h.idem.Result(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := strconv.ParseInt(res, 10, 64)
	if err != nil {
		writeError(w, r, idempotency.ErrInFlight)
		return
	}
	rental, err := h.svc.GetRental(r.Context(), id, principal(r).Scope())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Idempotent-Replayed", "true")
	writeJSON(w, http.StatusOK, toRentalResponse(rental))
}

func (h *RentalHandler) toDomain(p domain.Principal, body createRentalRequest) (domain.RentalRequest, error) {
	storeID := p.StoreID
	if p.Role == domain.RoleSuperAdmin {
		storeID = body.StoreID
	}
	start, err := utils.ParseDate(body.DateStart)
	if err != nil {
		return domain.RentalRequest{}, fmt.Errorf("date_start: %w", err)
	}
	end, err := utils.ParseDate(body.DateEnd)
	if err != nil {
		return domain.RentalRequest{}, fmt.Errorf("date_end: %w", err)
	}

	lines := make([]domain.RentalLineRequest, 0, len(body.Items))
	for _, it := range body.Items {
		lines = append(lines, domain.RentalLineRequest{
			EquipmentID: it.EquipmentID,
			Quantity:    it.Quantity,
			PricePerDay: it.PricePerDay,
		})
	}
	return domain.RentalRequest{
		StoreID:     storeID,
		ClientID:    body.ClientID,
		AdminID:     p.UserID,
		DateStart:   start,
		DateEnd:     end,
		Lines:       lines,
		TotalAmount: body.TotalAmount,
		Status:      domain.RentalStatus(body.Status),
		Comment:     body.Comment,
	}, nil
}

// GET /api/v1/rentals?skip=&limit=&status=&from=&to=
func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter domain.RentalFilter
	q := r.URL.Query()
	filter.Status = domain.RentalStatus(q.Get("status"))
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if v := q.Get(name); v != "" {
			t, err := utils.ParseDate(v)
			if err != nil {
				badRequest(w, name+": "+err.Error())
				return
			}
			*dst = &t
		}
	}
	h.list(w, r, filter)
}

// GET /api/v1/rentals/booked
func (h *RentalHandler) ListBooked(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.RentalFilter{Status: domain.RentalStatusBooked})
}

// GET /api/v1/rentals/overdue
func (h *RentalHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, domain.RentalFilter{Status: domain.RentalStatusOverdue})
}

func (h *RentalHandler) list(w http.ResponseWriter, r *http.Request, filter domain.RentalFilter) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultListLimit)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	rentals, err := h.svc.ListRentals(r.Context(), principal(r).Scope(), filter, skip, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRentalList(rentals))
}

// GET /api/v1/rentals/{id}
func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid rental id")
		return
	}
	rental, err := h.svc.GetRental(r.Context(), id, principal(r).Scope())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRentalResponse(rental))
}

// DELETE /api/v1/rentals/{id}
func (h *RentalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid rental id")
		return
	}
	if err := h.svc.DeleteRental(r.Context(), id, principal(r).Scope()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// PATCH /api/v1/rentals/{id}/activate
func (h *RentalHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid rental id")
		return
	}
	rental, err := h.svc.ActivateBooking(r.Context(), id, principal(r).Scope())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRentalResponse(rental))
}

// PATCH /api/v1/rentals/{id}/return, body {"cash": 50, "card": 0}, both optional
func (h *RentalHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid rental id")
		return
	}
	var body returnRentalRequest
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	cash, card := decimal.Zero, decimal.Zero
	if body.Cash != nil {
		cash = *body.Cash
	}
	if body.Card != nil {
		card = *body.Card
	}

	rental, err := h.svc.ReturnRental(r.Context(), id, principal(r).Scope(), cash, card)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRentalResponse(rental))
}

// GET /api/v1/rentals/{id}/settlements
func (h *RentalHandler) Settlements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid rental id")
		return
	}
	settlements, err := h.svc.ListSettlements(r.Context(), id, principal(r).Scope())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if settlements == nil {
		settlements = []domain.Settlement{}
	}
	writeJSON(w, http.StatusOK, settlements)
}

// POST /api/v1/rentals/sweep, body {"today": "yyyy-mm-dd"} optional
func (h *RentalHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	var body sweepRequest
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	today := h.now()
	if body.Today != "" {
		t, err := utils.ParseDate(body.Today)
		if err != nil {
			badRequest(w, "today: "+err.Error())
			return
		}
		today = t
	}
	n, err := h.svc.SweepOverdue(r.Context(), principal(r).Scope(), today)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

package http

import (
	"net/http"
	"strconv"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/service"
)

type EquipmentHandler struct {
	svc service.EquipmentService
}

// POST /api/v1/equipment
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createEquipmentRequest
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	p := principal(r)
	storeID := p.StoreID
	if p.Role == domain.RoleSuperAdmin {
		storeID = body.StoreID
	}

	e := &domain.Equipment{
		StoreID:       storeID,
		Title:         body.Title,
		QuantityTotal: body.QuantityTotal,
		PricePerDay:   body.PricePerDay,
	}
	if err := h.svc.AddEquipment(r.Context(), e); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/equipment/"+strconv.FormatInt(e.ID, 10))
	writeJSON(w, http.StatusCreated, e)
}

// GET /api/v1/equipment?skip=&limit=
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
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
	list, err := h.svc.ListEquipment(r.Context(), principal(r).Scope(), skip, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Equipment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// DELETE /api/v1/equipment/{id}
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid equipment id")
		return
	}
	if err := h.svc.DeleteEquipment(r.Context(), id, principal(r).Scope()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GET /api/v1/equipment/{id}
func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid equipment id")
		return
	}
	e, err := h.svc.GetEquipment(r.Context(), id, principal(r).Scope())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// PATCH /api/v1/equipment/{id}/total, body {"quantity_total": n}
func (h *EquipmentHandler) Resize(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid equipment id")
		return
	}
	var body resizeEquipmentRequest
	if err := decodeJSON(r, &body); err != nil || body.QuantityTotal == nil {
		badRequest(w, "quantity_total is required")
		return
	}
	e, err := h.svc.ResizeTotal(r.Context(), id, principal(r).Scope(), *body.QuantityTotal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// GET /api/v1/equipment/{id}/movements?limit=
func (h *EquipmentHandler) Movements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid equipment id")
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultListLimit)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	moves, err := h.svc.ListMovements(r.Context(), id, principal(r).Scope(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if moves == nil {
		moves = []domain.EquipmentMovement{}
	}
	writeJSON(w, http.StatusOK, moves)
}

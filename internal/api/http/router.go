package http

import (
	"context"
	"net/http"
	"time"

	"rentdesk-backend/internal/idempotency"
	"rentdesk-backend/internal/security"
	"rentdesk-backend/internal/service"

	"github.com/gorilla/mux"
)

// Pinger reports storage health for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Rentals     service.RentalService
	Equipment   service.EquipmentService
	Tokens      security.TokenManager
	Idempotency idempotency.Store // nil disables Idempotency-Key handling
	Health      Pinger
	Now         func() time.Time
}

// NewRouter wires every REST route under /api/v1 plus /healthz.
func NewRouter(d Deps) *mux.Router {
	if d.Idempotency == nil {
		d.Idempotency = idempotency.Noop{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}

	r := mux.NewRouter()
	r.Use(RequestLogging)
	r.HandleFunc("/healthz", healthHandler(d.Health)).Methods(http.MethodGet).Name("Health")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(NewAuthenticator(d.Tokens).Middleware)

	rh := &RentalHandler{svc: d.Rentals, idem: d.Idempotency, now: d.Now}
	api.HandleFunc("/rentals", rh.Create).Methods(http.MethodPost).Name("CreateRental")
	api.HandleFunc("/rentals", rh.List).Methods(http.MethodGet).Name("ListRentals")
	api.HandleFunc("/rentals/booked", rh.ListBooked).Methods(http.MethodGet).Name("ListBooked")
	api.HandleFunc("/rentals/overdue", rh.ListOverdue).Methods(http.MethodGet).Name("ListOverdue")
	api.HandleFunc("/rentals/sweep", rh.Sweep).Methods(http.MethodPost).Name("SweepOverdue")
	api.HandleFunc("/rentals/{id:[0-9]+}", rh.Get).Methods(http.MethodGet).Name("GetRental")
	api.HandleFunc("/rentals/{id:[0-9]+}", rh.Delete).Methods(http.MethodDelete).Name("DeleteRental")
	api.HandleFunc("/rentals/{id:[0-9]+}/activate", rh.Activate).Methods(http.MethodPatch).Name("ActivateRental")
	api.HandleFunc("/rentals/{id:[0-9]+}/return", rh.Return).Methods(http.MethodPatch).Name("ReturnRental")
	api.HandleFunc("/rentals/{id:[0-9]+}/settlements", rh.Settlements).Methods(http.MethodGet).Name("ListSettlements")

	eh := &EquipmentHandler{svc: d.Equipment}
	api.HandleFunc("/equipment", eh.Create).Methods(http.MethodPost).Name("CreateEquipment")
	api.HandleFunc("/equipment", eh.List).Methods(http.MethodGet).Name("ListEquipment")
	api.HandleFunc("/equipment/{id:[0-9]+}", eh.Get).Methods(http.MethodGet).Name("GetEquipment")
	api.HandleFunc("/equipment/{id:[0-9]+}", eh.Delete).Methods(http.MethodDelete).Name("DeleteEquipment")
	api.HandleFunc("/equipment/{id:[0-9]+}/total", eh.Resize).Methods(http.MethodPatch).Name("ResizeEquipment")
	api.HandleFunc("/equipment/{id:[0-9]+}/movements", eh.Movements).Methods(http.MethodGet).Name("ListEquipmentMovements")

	return r
}

func healthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

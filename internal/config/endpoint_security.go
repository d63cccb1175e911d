package config

import "rentdesk-backend/internal/domain"

var (
	readers   = []domain.Role{domain.RoleSuperAdmin, domain.RoleStoreAdmin, domain.RoleStaff, domain.RoleViewer}
	operators = []domain.Role{domain.RoleSuperAdmin, domain.RoleStoreAdmin, domain.RoleStaff}
	admins    = []domain.Role{domain.RoleSuperAdmin, domain.RoleStoreAdmin}
)

// EndpointRoles maps route names to the roles allowed to call them. Routes
// missing from the map are public.
var EndpointRoles = map[string][]domain.Role{
	// Rentals
	"CreateRental":    operators,
	"ListRentals":     readers,
	"ListBooked":      readers,
	"ListOverdue":     readers,
	"GetRental":       readers,
	"DeleteRental":    admins,
	"ActivateRental":  operators,
	"ReturnRental":    operators,
	"ListSettlements": readers,
	"SweepOverdue":    admins,

	// Equipment
	"CreateEquipment":        admins,
	"ListEquipment":          readers,
	"GetEquipment":           readers,
	"DeleteEquipment":        admins,
	"ResizeEquipment":        admins,
	"ListEquipmentMovements": readers,
}

package domain

type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleStoreAdmin Role = "store_admin"
	RoleStaff      Role = "staff"
	RoleViewer     Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleStoreAdmin, RoleStaff, RoleViewer:
		return true
	}
	return false
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID  int64
	StoreID int64
	Role    Role
}

// Scope is the store scope the principal works in. Super admins see every
// store; everyone else is confined to their own.
func (p Principal) Scope() Scope {
	if p.Role == RoleSuperAdmin {
		return AllStores()
	}
	return StoreScope(p.StoreID)
}

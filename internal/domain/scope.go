package domain

import "fmt"

// Scope restricts which store's rows an operation may see. The zero value is
// invalid on purpose; build one with StoreScope or AllStores.
type Scope struct {
	storeID int64
	all     bool
}

func StoreScope(storeID int64) Scope { return Scope{storeID: storeID} }

// AllStores is the super-admin scope.
func AllStores() Scope { return Scope{all: true} }

func (s Scope) Validate() error {
	if !s.all && s.storeID <= 0 {
		return ErrInvalidScope
	}
	return nil
}

func (s Scope) All() bool { return s.all }

// StoreID returns the concrete store, false for the all-stores scope.
func (s Scope) StoreID() (int64, bool) {
	if s.all {
		return 0, false
	}
	return s.storeID, true
}

func (s Scope) Allows(storeID int64) bool {
	return s.all || (s.storeID > 0 && s.storeID == storeID)
}

func (s Scope) String() string {
	if s.all {
		return "all"
	}
	return fmt.Sprintf("store:%d", s.storeID)
}

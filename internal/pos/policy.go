package pos

const (
	RoleAdmin   = "admin"
	RoleWaiter  = "waiter"
	RoleCashier = "cashier"
)

// Actor is the staff identity supplied with each request. Authentication is
// external; the engine only authorizes.
type Actor struct {
	ID    string
	Name  string
	Roles []string
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PermissionPolicy maps (role set, action) to a decision. It is a pure
// table: no I/O, no side effects, and unknown roles are denied rather than
// rejected as errors.
type PermissionPolicy struct {
	// AdminEdits treats admin as a superset of waiter for ledger edits.
	// The floor app gates item editing on waiter only; whether admin
	// inherits it is a deployment choice.
	AdminEdits bool
}

func NewPermissionPolicy(adminEdits bool) PermissionPolicy {
	return PermissionPolicy{AdminEdits: adminEdits}
}

// CanEditItems reports whether the actor may open orders and add, change or
// remove line items.
func (p PermissionPolicy) CanEditItems(actor Actor) bool {
	if actor.HasRole(RoleWaiter) {
		return true
	}
	return p.AdminEdits && actor.HasRole(RoleAdmin)
}

// CanCloseOrder reports whether the actor may finalize payment.
func (p PermissionPolicy) CanCloseOrder(actor Actor) bool {
	return actor.HasRole(RoleWaiter) || actor.HasRole(RoleCashier)
}

// CanViewHistory reports whether the actor may read orders and the order list.
func (p PermissionPolicy) CanViewHistory(actor Actor) bool {
	return actor.HasRole(RoleWaiter) || actor.HasRole(RoleCashier) || actor.HasRole(RoleAdmin)
}

// CanManageCatalog reports whether the actor may create, edit or delete
// menu items.
func (p PermissionPolicy) CanManageCatalog(actor Actor) bool {
	return actor.HasRole(RoleAdmin)
}

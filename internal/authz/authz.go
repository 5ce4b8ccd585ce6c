// Package authz implements the permission evaluator: a pure,
// table-driven mapping from (actor role, action, resource ownership)
// to an allow/deny decision. It performs no I/O and holds no state;
// every mutating operation calls it explicitly at its boundary.
package authz

import "github.com/taskdeck/taskdeck-api/internal/domain"

// Action identifies an operation an actor may attempt on a task.
type Action string

// Actions subject to authorization.
const (
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionAssign Action = "assign"
	ActionView   Action = "view"
)

// scope expresses how far a role's permission for an action reaches.
type scope int

const (
	scopeNone scope = iota // never allowed
	scopeOwn               // allowed only on tasks the actor owns
	scopeAll               // allowed on any task
)

// permissionTable is the closed decision table over the three roles.
// A role or action absent from the table denies.
var permissionTable = map[domain.Role]map[Action]scope{
	domain.RoleAdmin: {
		ActionCreate: scopeAll,
		ActionEdit:   scopeAll,
		ActionDelete: scopeAll,
		ActionAssign: scopeAll,
		ActionView:   scopeAll,
	},
	domain.RoleManager: {
		ActionCreate: scopeAll,
		ActionEdit:   scopeAll,
		ActionDelete: scopeNone,
		ActionAssign: scopeAll,
		ActionView:   scopeAll,
	},
	domain.RoleMember: {
		ActionCreate: scopeAll,
		ActionEdit:   scopeOwn,
		ActionDelete: scopeNone,
		ActionAssign: scopeNone,
		ActionView:   scopeOwn,
	},
}

// Authorize reports whether an actor with the given role may perform
// the action. isOwner states whether the actor owns (created or is
// assigned) the resource in question; it is ignored for actions whose
// permission does not depend on ownership. An unknown or empty role —
// an unauthenticated actor — is denied every action.
func Authorize(role domain.Role, action Action, isOwner bool) bool {
	actions, ok := permissionTable[role]
	if !ok {
		return false
	}

	switch actions[action] {
	case scopeAll:
		return true
	case scopeOwn:
		return isOwner
	default:
		return false
	}
}

// CanViewAll reports whether the role's view permission covers tasks
// it does not own. The dashboard aggregator and list queries use this
// to pick their visibility scope.
func CanViewAll(role domain.Role) bool {
	return Authorize(role, ActionView, false)
}

// CanEditAny reports whether the role may edit tasks it does not own.
// Completing a task requires being its creator, its assignee, or
// holding this permission.
func CanEditAny(role domain.Role) bool {
	return Authorize(role, ActionEdit, false)
}

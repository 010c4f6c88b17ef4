// Package policy decides which task operations a caller may perform. It is a
// pure decision table; callers must pass the assignee as currently stored,
// never a value taken from the request body.
package policy

import (
	"errors"

	"github.com/yukikurage/taskboard-api/internal/models"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("operation not permitted")
)

type Operation string

const (
	OpView         Operation = "view"
	OpCreate       Operation = "create"
	OpEdit         Operation = "edit"
	OpChangeStatus Operation = "change_status"
	OpDelete       Operation = "delete"
	OpComment      Operation = "comment"
)

// Caller is the authenticated identity making a request. The zero value is
// an unauthenticated caller.
type Caller struct {
	ID            uint64
	Name          string
	Email         string
	Role          models.Role
	Authenticated bool
}

// Permissions is the operation set a caller holds on one task.
type Permissions struct {
	View         bool `json:"view"`
	Edit         bool `json:"edit"`
	ChangeStatus bool `json:"change_status"`
	Delete       bool `json:"delete"`
	Comment      bool `json:"comment"`
}

// Allows reports whether op is part of the set. OpCreate is not task-scoped
// and is answered by CanCreate.
func (p Permissions) Allows(op Operation) bool {
	switch op {
	case OpView:
		return p.View
	case OpEdit:
		return p.Edit
	case OpChangeStatus:
		return p.ChangeStatus
	case OpDelete:
		return p.Delete
	case OpComment:
		return p.Comment
	default:
		return false
	}
}

func isManager(role models.Role) bool {
	return role == models.RoleAdmin || role == models.RoleProductOwner
}

// Evaluate returns the permissions caller holds on a task assigned to
// assignee. assignee may be nil, a pointer, a number or a string.
func Evaluate(caller Caller, assignee any) Permissions {
	if !caller.Authenticated {
		return Permissions{}
	}

	// Full edit implies every other task operation.
	if CanEdit(caller.Role) {
		return Permissions{View: true, Edit: true, ChangeStatus: true, Delete: true, Comment: true}
	}

	if caller.Role == models.RoleDeveloper && IsAssignee(caller.ID, assignee) {
		return Permissions{View: true, ChangeStatus: true, Comment: true}
	}

	return Permissions{}
}

// Authorize returns nil when op is permitted. An unauthenticated caller
// always gets ErrUnauthenticated, whatever the operation.
func Authorize(caller Caller, op Operation, assignee any) error {
	if !caller.Authenticated {
		return ErrUnauthenticated
	}

	if op == OpCreate {
		if CanCreate(caller.Role) {
			return nil
		}
		return ErrForbidden
	}

	if !Evaluate(caller, assignee).Allows(op) {
		return ErrForbidden
	}
	return nil
}

// RequireRole checks a non task-scoped action against a set of roles.
func RequireRole(caller Caller, roles ...models.Role) error {
	if !caller.Authenticated {
		return ErrUnauthenticated
	}
	for _, role := range roles {
		if caller.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

func CanCreate(role models.Role) bool {
	return isManager(role)
}

// CanEdit covers title, description, due date and assignee changes.
func CanEdit(role models.Role) bool {
	return isManager(role)
}

func CanView(caller Caller, assignee any) bool {
	return Evaluate(caller, assignee).View
}

// SeesAllTasks reports whether the caller's task list is unrestricted.
// Developers only see tasks assigned to them.
func SeesAllTasks(caller Caller) bool {
	return caller.Authenticated && isManager(caller.Role)
}

// FilterVisible keeps the tasks the caller may view, preserving order.
func FilterVisible(caller Caller, tasks []models.Task) []models.Task {
	visible := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if CanView(caller, task.AssigneeID) {
			visible = append(visible, task)
		}
	}
	return visible
}

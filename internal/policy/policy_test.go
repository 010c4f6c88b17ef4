package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/taskboard-api/internal/models"
)

func ptr(v uint64) *uint64 { return &v }

func caller(id uint64, role models.Role) Caller {
	return Caller{ID: id, Role: role, Authenticated: true}
}

func TestEvaluate_DecisionTable(t *testing.T) {
	all := Permissions{View: true, Edit: true, ChangeStatus: true, Delete: true, Comment: true}
	dev := Permissions{View: true, ChangeStatus: true, Comment: true}

	cases := []struct {
		name     string
		caller   Caller
		assignee any
		want     Permissions
	}{
		{"admin unassigned", caller(1, models.RoleAdmin), nil, all},
		{"admin other assignee", caller(1, models.RoleAdmin), ptr(9), all},
		{"po unassigned", caller(2, models.RoleProductOwner), nil, all},
		{"po other assignee", caller(2, models.RoleProductOwner), ptr(9), all},
		{"developer own task", caller(3, models.RoleDeveloper), ptr(3), dev},
		{"developer other task", caller(3, models.RoleDeveloper), ptr(4), Permissions{}},
		{"developer unassigned task", caller(3, models.RoleDeveloper), nil, Permissions{}},
		{"developer nil pointer", caller(3, models.RoleDeveloper), (*uint64)(nil), Permissions{}},
		{"unknown role", caller(5, models.Role("superuser")), ptr(5), Permissions{}},
		{"unauthenticated admin role", Caller{ID: 1, Role: models.RoleAdmin}, nil, Permissions{}},
		{"unauthenticated zero", Caller{}, ptr(0), Permissions{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.caller, tc.assignee))
		})
	}
}

func TestCanEdit_OnlyManagers(t *testing.T) {
	assert.True(t, CanEdit(models.RoleAdmin))
	assert.True(t, CanEdit(models.RoleProductOwner))
	assert.False(t, CanEdit(models.RoleDeveloper))
	assert.False(t, CanEdit(""))

	// Even an assigned developer never gets full edit.
	for _, role := range models.Roles {
		c := caller(7, role)
		assert.Equal(t, CanEdit(role), Evaluate(c, ptr(7)).Edit, role)
		assert.Equal(t, CanEdit(role), Evaluate(c, nil).Edit, role)
	}
}

func TestEvaluate_DeveloperChangesStatusOnlyWhenAssigned(t *testing.T) {
	dev := caller(42, models.RoleDeveloper)

	assert.True(t, Evaluate(dev, ptr(42)).ChangeStatus)
	assert.True(t, Evaluate(dev, "42").ChangeStatus)
	assert.True(t, Evaluate(dev, float64(42)).ChangeStatus)
	assert.True(t, Evaluate(dev, " 042 ").ChangeStatus)
	assert.False(t, Evaluate(dev, ptr(41)).ChangeStatus)
	assert.False(t, Evaluate(dev, "").ChangeStatus)
	assert.False(t, Evaluate(dev, nil).ChangeStatus)
}

func TestAuthorize_UnauthenticatedBeforeForbidden(t *testing.T) {
	for _, op := range []Operation{OpView, OpCreate, OpEdit, OpChangeStatus, OpDelete, OpComment} {
		assert.ErrorIs(t, Authorize(Caller{}, op, nil), ErrUnauthenticated, op)
	}

	dev := caller(3, models.RoleDeveloper)
	assert.ErrorIs(t, Authorize(dev, OpEdit, ptr(3)), ErrForbidden)
	assert.ErrorIs(t, Authorize(dev, OpDelete, ptr(3)), ErrForbidden)
	assert.ErrorIs(t, Authorize(dev, OpCreate, nil), ErrForbidden)
	assert.ErrorIs(t, Authorize(dev, OpChangeStatus, nil), ErrForbidden)
	assert.NoError(t, Authorize(dev, OpChangeStatus, ptr(3)))
	assert.NoError(t, Authorize(dev, OpComment, ptr(3)))

	po := caller(2, models.RoleProductOwner)
	assert.NoError(t, Authorize(po, OpCreate, nil))
	assert.NoError(t, Authorize(po, OpDelete, ptr(99)))

	assert.ErrorIs(t, Authorize(po, Operation("archive"), nil), ErrForbidden)
}

func TestRequireRole(t *testing.T) {
	assert.ErrorIs(t, RequireRole(Caller{}, models.RoleAdmin), ErrUnauthenticated)
	assert.ErrorIs(t, RequireRole(caller(1, models.RoleProductOwner), models.RoleAdmin), ErrForbidden)
	assert.NoError(t, RequireRole(caller(1, models.RoleProductOwner), models.RoleAdmin, models.RoleProductOwner))
}

func TestFilterVisible(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, AssigneeID: ptr(3)},
		{ID: 2},
		{ID: 3, AssigneeID: ptr(4)},
		{ID: 4, AssigneeID: ptr(3)},
	}

	got := FilterVisible(caller(3, models.RoleDeveloper), tasks)
	assert.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].ID)
	assert.Equal(t, uint64(4), got[1].ID)

	assert.Len(t, FilterVisible(caller(1, models.RoleAdmin), tasks), 4)
	assert.Empty(t, FilterVisible(Caller{}, tasks))
	assert.True(t, SeesAllTasks(caller(1, models.RoleProductOwner)))
	assert.False(t, SeesAllTasks(caller(1, models.RoleDeveloper)))
}

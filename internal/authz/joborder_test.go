// AngelaMos | 2026
// joborder_test.go

package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/joborders/internal/core"
)

func ptr(s string) *string { return &s }

func principal(id string, roles ...Role) *Principal {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return &Principal{ID: id, Roles: names}
}

func TestCanEditJobOrder(t *testing.T) {
	tests := []struct {
		name    string
		subject Subject
		assign  Assignment
		want    bool
	}{
		{
			name:    "assigned engineer",
			subject: principal("e1", RoleEngineer),
			assign:  Assignment{EngineerID: ptr("e1")},
			want:    true,
		},
		{
			name:    "unassigned engineer",
			subject: principal("e2", RoleEngineer),
			assign:  Assignment{EngineerID: ptr("e1")},
			want:    false,
		},
		{
			name:    "moderator without assignment",
			subject: principal("m1", RoleModerator),
			assign:  Assignment{EngineerID: ptr("e1")},
			want:    true,
		},
		{
			name:    "admin with empty assignment",
			subject: principal("a1", RoleAdmin),
			assign:  Assignment{},
			want:    true,
		},
		{
			name:    "assigned manager",
			subject: principal("mg1", RoleManager),
			assign:  Assignment{ManagerID: ptr("mg1")},
			want:    true,
		},
		{
			name:    "assigned supervisor",
			subject: principal("s1", RoleSupervisor),
			assign:  Assignment{SupervisorID: ptr("s1")},
			want:    true,
		},
		{
			name:    "assigned user with no roles",
			subject: principal("u1"),
			assign:  Assignment{SupervisorID: ptr("u1")},
			want:    true,
		},
		{
			name:    "no roles and no assignment",
			subject: principal("u1"),
			assign:  Assignment{EngineerID: ptr("e1")},
			want:    false,
		},
		{
			name:    "manager role alone grants nothing",
			subject: principal("mg2", RoleManager),
			assign:  Assignment{ManagerID: ptr("mg1")},
			want:    false,
		},
		{
			name:    "all assignment slots nil",
			subject: principal("e1", RoleEngineer, RoleSupervisor, RoleManager),
			assign:  Assignment{},
			want:    false,
		},
		{
			name:    "holds every slot",
			subject: principal("e1", RoleEngineer),
			assign: Assignment{
				EngineerID:   ptr("e1"),
				SupervisorID: ptr("e1"),
				ManagerID:    ptr("e1"),
			},
			want: true,
		},
		{
			name:    "role names are case sensitive",
			subject: &Principal{ID: "x1", Roles: []string{"Admin", "MODERATOR"}},
			assign:  Assignment{},
			want:    false,
		},
		{
			name:    "empty subject id never matches empty slot",
			subject: principal(""),
			assign:  Assignment{EngineerID: ptr("")},
			want:    false,
		},
		{
			name:    "nil principal",
			subject: (*Principal)(nil),
			assign:  Assignment{EngineerID: ptr("e1")},
			want:    false,
		},
		{
			name:    "nil subject",
			subject: nil,
			assign:  Assignment{EngineerID: ptr("e1")},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanEditJobOrder(tt.subject, tt.assign))
		})
	}
}

func TestCanDeleteJobOrder(t *testing.T) {
	tests := []struct {
		name    string
		subject Subject
		want    bool
	}{
		{"admin", principal("a1", RoleAdmin), true},
		{"moderator", principal("m1", RoleModerator), true},
		{"admin and engineer", principal("a1", RoleEngineer, RoleAdmin), true},
		{"engineer", principal("e1", RoleEngineer), false},
		{"manager", principal("mg1", RoleManager), false},
		{"supervisor", principal("s1", RoleSupervisor), false},
		{"no roles", principal("u1"), false},
		{"unauthenticated", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanDeleteJobOrder(tt.subject))
		})
	}
}

func TestAssignmentNeverGrantsDelete(t *testing.T) {
	full := Assignment{
		EngineerID:   ptr("u1"),
		SupervisorID: ptr("u1"),
		ManagerID:    ptr("u1"),
	}

	for _, role := range []Role{RoleEngineer, RoleSupervisor, RoleManager} {
		p := principal("u1", role)
		d := Decide(p, full)
		assert.True(t, d.CanEdit, role)
		assert.False(t, d.CanDelete, role)
	}
}

func TestDeleteImpliesEdit(t *testing.T) {
	subjects := []*Principal{
		principal("a1", RoleAdmin),
		principal("m1", RoleModerator),
		principal("e1", RoleEngineer),
		principal("u1"),
	}
	assignments := []Assignment{
		{},
		{EngineerID: ptr("e1")},
		{ManagerID: ptr("nobody")},
	}

	for _, s := range subjects {
		for _, a := range assignments {
			if CanDeleteJobOrder(s) {
				assert.True(t, CanEditJobOrder(s, a), s.ID)
			}
		}
	}
}

func TestDecideIsIdempotent(t *testing.T) {
	p := principal("e1", RoleEngineer)
	p.Permissions = []string{string(PermViewAnyJobOrder)}
	a := Assignment{EngineerID: ptr("e1")}

	first := Decide(p, a)
	for range 5 {
		assert.Equal(t, first, Decide(p, a))
	}
	assert.Equal(t, Decision{CanView: true, CanEdit: true, CanDelete: false}, first)
}

func TestCanViewJobOrder(t *testing.T) {
	viewer := &Principal{
		ID:          "u1",
		Permissions: []string{string(PermViewAnyJobOrder)},
	}
	assert.True(t, CanViewJobOrder(viewer))

	admin := principal("a1", RoleAdmin)
	assert.False(t, CanViewJobOrder(admin), "view follows the permission, not the role")

	assert.False(t, CanViewJobOrder(nil))
}

func TestAuthorizeEdit(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		err := AuthorizeEdit(nil, Assignment{})
		require.Error(t, err)

		reason, ok := DenialReason(err)
		require.True(t, ok)
		assert.Equal(t, "Unauthorized", reason)
		assert.True(t, errors.Is(err, core.ErrForbidden))
	})

	t.Run("denied carries reason", func(t *testing.T) {
		err := AuthorizeEdit(principal("e2", RoleEngineer), Assignment{EngineerID: ptr("e1")})
		require.Error(t, err)

		var denied *DeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, ActionEdit, denied.Action)
		assert.Equal(t, ReasonEdit, denied.Reason)
		assert.False(t, denied.Unauthenticated())
		assert.Contains(t, denied.Reason, "Only admins, moderators, or assigned engineers")
	})

	t.Run("allowed", func(t *testing.T) {
		err := AuthorizeEdit(principal("e1", RoleEngineer), Assignment{EngineerID: ptr("e1")})
		assert.NoError(t, err)
	})
}

func TestAuthorizeDelete(t *testing.T) {
	err := AuthorizeDelete(principal("mg1", RoleManager))
	require.Error(t, err)

	reason, ok := DenialReason(err)
	require.True(t, ok)
	assert.Equal(t, ReasonDelete, reason)
	assert.ErrorIs(t, err, core.ErrForbidden)

	assert.NoError(t, AuthorizeDelete(principal("m1", RoleModerator)))

	reason, _ = DenialReason(AuthorizeDelete(principal("")))
	assert.Equal(t, ReasonUnauthenticated, reason)
}

func TestAuthorizeView(t *testing.T) {
	reason, ok := DenialReason(AuthorizeView(principal("e1", RoleEngineer)))
	require.True(t, ok)
	assert.Equal(t, ReasonView, reason)

	_, ok = DenialReason(nil)
	assert.False(t, ok)
}

func TestFieldsFor(t *testing.T) {
	tests := []struct {
		name    string
		subject Subject
		want    FieldAccess
	}{
		{
			name:    "admin edits everything",
			subject: principal("a1", RoleAdmin),
			want:    FieldAccess{All: true, Engineer: true, Supervisor: true, Manager: true},
		},
		{
			name:    "manager only is restricted to manager fields",
			subject: principal("mg1", RoleManager),
			want:    FieldAccess{All: false, Manager: true},
		},
		{
			name:    "manager who is also moderator",
			subject: principal("mg1", RoleManager, RoleModerator),
			want:    FieldAccess{All: true, Engineer: true, Supervisor: true, Manager: true},
		},
		{
			name:    "engineer",
			subject: principal("e1", RoleEngineer),
			want:    FieldAccess{All: true, Engineer: true},
		},
		{
			name:    "supervisor",
			subject: principal("s1", RoleSupervisor),
			want:    FieldAccess{All: true, Supervisor: true},
		},
		{
			name:    "unauthenticated",
			subject: nil,
			want:    FieldAccess{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FieldsFor(tt.subject))
		})
	}
}

func TestDefaultRolePermissions(t *testing.T) {
	defaults := DefaultRolePermissions()

	assert.ElementsMatch(t, []Permission{
		PermViewAnyJobOrder, PermCreateJobOrder, PermUpdateJobOrder,
	}, defaults[RoleEngineer])

	for _, role := range []Role{RoleManager, RoleSupervisor, RoleModerator} {
		assert.ElementsMatch(t, JobOrderPermissions(), defaults[role], role)
	}

	assert.Len(t, defaults[RoleAdmin], len(JobOrderPermissions())+len(AdminPermissions()))
	assert.Contains(t, defaults[RoleAdmin], PermDeleteUsers)
}

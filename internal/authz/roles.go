// AngelaMos | 2026
// roles.go

package authz

// Role names are compared by exact, case-sensitive equality.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleModerator  Role = "moderator"
	RoleEngineer   Role = "engineer"
	RoleManager    Role = "manager"
	RoleSupervisor Role = "supervisor"
)

// StaffRoles are the roles with unconditional job order access.
var StaffRoles = []Role{RoleAdmin, RoleModerator}

type Permission string

const (
	PermViewAnyJobOrder Permission = "view any job order"
	PermCreateJobOrder  Permission = "create job order"
	PermUpdateJobOrder  Permission = "update job order"
	PermDeleteJobOrder  Permission = "delete job order"

	PermViewDashboard Permission = "view dashboard"

	PermViewAnyPermissions Permission = "view any permissions"
	PermCreatePermissions  Permission = "create permissions"
	PermUpdatePermissions  Permission = "update permissions"
	PermDeletePermissions  Permission = "delete permissions"

	PermViewAnyRoles Permission = "view any roles"
	PermCreateRoles  Permission = "create roles"
	PermUpdateRoles  Permission = "update roles"
	PermDeleteRoles  Permission = "delete roles"

	PermViewAnyUsers Permission = "view any users"
	PermCreateUsers  Permission = "create users"
	PermUpdateUsers  Permission = "update users"
	PermDeleteUsers  Permission = "delete users"
)

func JobOrderPermissions() []Permission {
	return []Permission{
		PermViewAnyJobOrder,
		PermCreateJobOrder,
		PermUpdateJobOrder,
		PermDeleteJobOrder,
	}
}

func AdminPermissions() []Permission {
	return []Permission{
		PermViewDashboard,
		PermViewAnyPermissions,
		PermCreatePermissions,
		PermUpdatePermissions,
		PermDeletePermissions,
		PermViewAnyRoles,
		PermCreateRoles,
		PermUpdateRoles,
		PermDeleteRoles,
		PermViewAnyUsers,
		PermCreateUsers,
		PermUpdateUsers,
		PermDeleteUsers,
	}
}

// DefaultRolePermissions is the seeded permission set of each built-in role.
func DefaultRolePermissions() map[Role][]Permission {
	return map[Role][]Permission{
		RoleAdmin: append(JobOrderPermissions(), AdminPermissions()...),
		RoleEngineer: {
			PermViewAnyJobOrder,
			PermCreateJobOrder,
			PermUpdateJobOrder,
		},
		RoleManager:    JobOrderPermissions(),
		RoleSupervisor: JobOrderPermissions(),
		RoleModerator:  JobOrderPermissions(),
	}
}

func PermissionNames(perms []Permission) []string {
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, string(p))
	}
	return names
}

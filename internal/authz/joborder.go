// AngelaMos | 2026
// joborder.go

package authz

// Assignment holds the three user references of a job order. Any of them
// may be nil.
type Assignment struct {
	EngineerID   *string
	SupervisorID *string
	ManagerID    *string
}

// Includes reports whether userID occupies any assignment slot. Nil slots
// and an empty userID never match.
func (a Assignment) Includes(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range []*string{a.EngineerID, a.SupervisorID, a.ManagerID} {
		if id != nil && *id == userID {
			return true
		}
	}
	return false
}

func IsStaff(s Subject) bool {
	return authenticated(s) && s.HasAnyRole(StaffRoles...)
}

func IsAssigned(s Subject, a Assignment) bool {
	return authenticated(s) && a.Includes(s.SubjectID())
}

// CanEditJobOrder grants edit to admins, moderators and any user holding
// one of the assignment slots.
func CanEditJobOrder(s Subject, a Assignment) bool {
	return IsStaff(s) || IsAssigned(s, a)
}

// CanDeleteJobOrder grants delete to admins and moderators only.
// Assignment never grants delete.
func CanDeleteJobOrder(s Subject) bool {
	return IsStaff(s)
}

func CanViewJobOrder(s Subject) bool {
	return authenticated(s) && s.HasPermission(PermViewAnyJobOrder)
}

type Decision struct {
	CanView   bool `json:"can_view"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

func Decide(s Subject, a Assignment) Decision {
	return Decision{
		CanView:   CanViewJobOrder(s),
		CanEdit:   CanEditJobOrder(s, a),
		CanDelete: CanDeleteJobOrder(s),
	}
}

// FieldAccess mirrors which field groups of the edit form a subject may
// change. It is advisory and never consulted on the server.
type FieldAccess struct {
	All        bool `json:"all"`
	Engineer   bool `json:"engineer"`
	Supervisor bool `json:"supervisor"`
	Manager    bool `json:"manager"`
}

func FieldsFor(s Subject) FieldAccess {
	if !authenticated(s) {
		return FieldAccess{}
	}

	staff := s.HasAnyRole(StaffRoles...)
	managerOnly := s.HasAnyRole(RoleManager) && !staff

	return FieldAccess{
		All:        !managerOnly,
		Engineer:   staff || s.HasAnyRole(RoleEngineer),
		Supervisor: staff || s.HasAnyRole(RoleSupervisor),
		Manager:    staff || s.HasAnyRole(RoleManager),
	}
}

// AngelaMos | 2026
// subject.go

package authz

import (
	"slices"
)

// Subject is the acting user as seen by the decision engine.
type Subject interface {
	SubjectID() string
	HasAnyRole(roles ...Role) bool
	HasPermission(perm Permission) bool
}

// Principal is a Subject resolved from the role and permission registry.
type Principal struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func (p *Principal) SubjectID() string {
	if p == nil {
		return ""
	}
	return p.ID
}

func (p *Principal) HasRole(role Role) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Roles, string(role))
}

func (p *Principal) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

func (p *Principal) HasPermission(perm Permission) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Permissions, string(perm))
}

func (p *Principal) HasAnyPermission(perms ...Permission) bool {
	for _, perm := range perms {
		if p.HasPermission(perm) {
			return true
		}
	}
	return false
}

var _ Subject = (*Principal)(nil)

func authenticated(s Subject) bool {
	return s != nil && s.SubjectID() != ""
}

// AngelaMos | 2026
// dto.go

package rbac

import (
	"time"

	"github.com/carterperez-dev/joborders/internal/core"
)

const displayDateLayout = "02-01-2006"

type RoleRequest struct {
	Name        string   `json:"name"        validate:"required,min=1,max=255"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,required,max=255"`
}

type PermissionRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

type RoleResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	CreatedAt   string   `json:"created_at"`
	Permissions []string `json:"permissions"`
}

type PermissionResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type RoleFormResponse struct {
	Role        *RoleResponse `json:"role,omitempty"`
	Permissions []string      `json:"permissions"`
}

const defaultPageSize = 10

type ListParams struct {
	core.Pagination
	Search string `json:"search"`
}

func formatDate(t time.Time) string {
	return t.Format(displayDateLayout)
}

func ToRoleResponse(r *Role) RoleResponse {
	perms := []string(r.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		CreatedAt:   formatDate(r.CreatedAt),
		Permissions: perms,
	}
}

func ToRoleResponseList(roles []Role) []RoleResponse {
	out := make([]RoleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, ToRoleResponse(&roles[i]))
	}
	return out
}

func ToPermissionResponse(p *Permission) PermissionResponse {
	return PermissionResponse{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: formatDate(p.CreatedAt),
	}
}

func ToPermissionResponseList(perms []Permission) []PermissionResponse {
	out := make([]PermissionResponse, 0, len(perms))
	for i := range perms {
		out = append(out, ToPermissionResponse(&perms[i]))
	}
	return out
}

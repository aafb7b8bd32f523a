// AngelaMos | 2026
// handler.go

package rbac

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/joborders/internal/authz"
	"github.com/carterperez-dev/joborders/internal/core"
	"github.com/carterperez-dev/joborders/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts role and permission management. The router must
// already carry the authenticator and principal loader.
func (h *Handler) RegisterRoutes(r chi.Router) {
	can := middleware.RequirePermission

	r.Route("/roles", func(r chi.Router) {
		r.With(can(authz.PermViewAnyRoles)).Get("/", h.ListRoles)
		r.With(can(authz.PermCreateRoles)).Get("/create", h.CreateRoleForm)
		r.With(can(authz.PermCreateRoles)).Post("/", h.CreateRole)
		r.With(can(authz.PermViewAnyRoles)).Get("/{roleID}", h.GetRole)
		r.With(can(authz.PermUpdateRoles)).Get("/{roleID}/edit", h.EditRoleForm)
		r.With(can(authz.PermUpdateRoles)).Put("/{roleID}", h.UpdateRole)
		r.With(can(authz.PermDeleteRoles)).Delete("/{roleID}", h.DeleteRole)
	})

	r.Route("/permissions", func(r chi.Router) {
		r.With(can(authz.PermViewAnyPermissions)).Get("/", h.ListPermissions)
		r.With(can(authz.PermCreatePermissions)).Post("/", h.CreatePermission)
		r.With(can(authz.PermViewAnyPermissions)).Get("/{permissionID}", h.GetPermission)
		r.With(can(authz.PermUpdatePermissions)).Get("/{permissionID}/edit", h.GetPermission)
		r.With(can(authz.PermUpdatePermissions)).Put("/{permissionID}", h.UpdatePermission)
		r.With(can(authz.PermDeletePermissions)).Delete("/{permissionID}", h.DeletePermission)
	})
}

func listParams(r *http.Request) ListParams {
	return ListParams{
		Pagination: core.QueryPagination(r, defaultPageSize),
		Search:     r.URL.Query().Get("search"),
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func writeError(w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, resource)
	case errors.Is(err, core.ErrDuplicateKey):
		core.JSONError(w, core.DuplicateError("name"))
	case errors.Is(err, ErrUnknownPermission):
		core.JSONError(w, core.ValidationError("one or more permissions do not exist"))
	default:
		core.InternalServerError(w, err)
	}
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	roles, total, err := h.service.ListRoles(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToRoleResponseList(roles), params.Page, params.PageSize, total)
}

func (h *Handler) CreateRoleForm(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.PermissionNames(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, RoleFormResponse{Permissions: perms})
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	role, err := h.service.CreateRole(r.Context(), req)
	if err != nil {
		writeError(w, err, "role")
		return
	}

	core.Created(w, ToRoleResponse(role))
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.GetRole(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		writeError(w, err, "role")
		return
	}

	core.OK(w, ToRoleResponse(role))
}

func (h *Handler) EditRoleForm(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.GetRole(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		writeError(w, err, "role")
		return
	}

	perms, err := h.service.PermissionNames(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := ToRoleResponse(role)
	core.OK(w, RoleFormResponse{Role: &resp, Permissions: perms})
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	role, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "roleID"), req)
	if err != nil {
		writeError(w, err, "role")
		return
	}

	core.OK(w, ToRoleResponse(role))
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRole(r.Context(), chi.URLParam(r, "roleID")); err != nil {
		writeError(w, err, "role")
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	perms, total, err := h.service.ListPermissions(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToPermissionResponseList(perms), params.Page, params.PageSize, total)
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var req PermissionRequest
	if !h.decode(w, r, &req) {
		return
	}

	perm, err := h.service.CreatePermission(r.Context(), req)
	if err != nil {
		writeError(w, err, "permission")
		return
	}

	core.Created(w, ToPermissionResponse(perm))
}

func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	perm, err := h.service.GetPermission(r.Context(), chi.URLParam(r, "permissionID"))
	if err != nil {
		writeError(w, err, "permission")
		return
	}

	core.OK(w, ToPermissionResponse(perm))
}

func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	var req PermissionRequest
	if !h.decode(w, r, &req) {
		return
	}

	perm, err := h.service.UpdatePermission(
		r.Context(),
		chi.URLParam(r, "permissionID"),
		req,
	)
	if err != nil {
		writeError(w, err, "permission")
		return
	}

	core.OK(w, ToPermissionResponse(perm))
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePermission(r.Context(), chi.URLParam(r, "permissionID")); err != nil {
		writeError(w, err, "permission")
		return
	}

	core.NoContent(w)
}

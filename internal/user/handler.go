// AngelaMos | 2026
// handler.go

package user

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

// RegisterRoutes mounts self service and user management. The router must
// already carry the authenticator and principal loader.
func (h *Handler) RegisterRoutes(r chi.Router) {
	can := middleware.RequirePermission

	r.Route("/users", func(r chi.Router) {
		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		r.Delete("/me", h.DeleteMe)

		r.With(can(authz.PermViewAnyUsers)).Get("/", h.ListUsers)
		r.With(can(authz.PermCreateUsers)).Get("/create", h.CreateUserForm)
		r.With(can(authz.PermCreateUsers)).Post("/", h.CreateUser)
		r.With(can(authz.PermViewAnyUsers)).Get("/{userID}", h.GetUser)
		r.With(can(authz.PermUpdateUsers)).Get("/{userID}/edit", h.EditUserForm)
		r.With(can(authz.PermUpdateUsers)).Put("/{userID}", h.UpdateUser)
		r.With(can(authz.PermDeleteUsers)).Delete("/{userID}", h.DeleteUser)
	})
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

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	case errors.Is(err, core.ErrDuplicateKey):
		core.JSONError(w, core.DuplicateError("email"))
	case errors.Is(err, core.ErrInvalidInput):
		core.JSONError(w, core.ValidationError("one or more roles do not exist"))
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, middleware.DeniedMessage)
	case errors.Is(err, core.ErrUnauthorized):
		core.Forbidden(w, authz.ReasonUnauthenticated)
	default:
		core.InternalServerError(w, err)
	}
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetMe(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.UpdateMe(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMe(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		Pagination: core.QueryPagination(r, defaultPageSize),
		Search:     r.URL.Query().Get("search"),
		Role:       r.URL.Query().Get("role"),
	}

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToUserResponseList(users),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) CreateUserForm(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.RoleNames(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, UserFormResponse{Roles: roles})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToUserResponse(user))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetUserDetail(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, detail)
}

func (h *Handler) EditUserForm(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}

	roles, err := h.service.RoleNames(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := ToUserResponse(user)
	core.OK(w, UserFormResponse{User: &resp, Roles: roles})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req AdminUpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), chi.URLParam(r, "userID"), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	err := h.service.DeleteUser(r.Context(), principal, chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

// AngelaMos | 2026
// handler.go

package joborder

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

// CreateFailedMessage is returned when a number collision aborts a create.
const CreateFailedMessage = "Failed to create job order. Please try again."

type Handler struct {
	service   *Service
	guard     *Guard
	validator *validator.Validate
}

func NewHandler(service *Service, guard *Guard) *Handler {
	return &Handler{
		service:   service,
		guard:     guard,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts job order CRUD. writeLimit, when non-nil, wraps
// only the POST, PUT and DELETE routes.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	writeLimit func(http.Handler) http.Handler,
) {
	can := middleware.RequirePermission

	r.Route("/joborders", func(r chi.Router) {
		writes := r
		if writeLimit != nil {
			writes = r.With(writeLimit)
		}

		r.With(can(authz.PermViewAnyJobOrder)).Get("/", h.List)
		r.With(can(authz.PermCreateJobOrder)).Get("/create", h.CreateForm)
		writes.With(can(authz.PermCreateJobOrder)).Post("/", h.Create)
		r.With(can(authz.PermViewAnyJobOrder)).Get("/{jobOrderID}", h.Show)
		r.With(h.guard.RequireEdit).Get("/{jobOrderID}/edit", h.Edit)
		writes.With(h.guard.RequireEdit).Put("/{jobOrderID}", h.Update)
		writes.With(h.guard.RequireDelete).Delete("/{jobOrderID}", h.Delete)
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNumberConflict):
		core.Conflict(w, CreateFailedMessage)
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "job order")
	case core.IsAppError(err):
		core.JSONError(w, err)
	default:
		core.InternalServerError(w, err)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (JobOrderRequest, bool) {
	var req JobOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return req, false
	}

	req.Normalize()

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return req, false
	}

	return req, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{
		Pagination: core.QueryPagination(r, h.service.PageSize()),
		Search:     q.Get("search"),
		Status:     q.Get("status"),
		Priority:   q.Get("priority"),
		Type:       q.Get("type"),
	}

	orders, total, err := h.service.List(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	p := middleware.GetPrincipal(r.Context())
	core.Paginated(w, ListResponse{
		JobOrders: presentAll(p, orders),
		Auth:      authHintFor(p),
	}, params.Page, params.PageSize, total)
}

func (h *Handler) CreateForm(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.Assignees(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, FormResponse{
		Users:      nonNil(users),
		Statuses:   Statuses,
		Priorities: Priorities,
		Types:      Types,
		Auth:       authHintFor(middleware.GetPrincipal(r.Context())),
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	jo, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, present(middleware.GetPrincipal(r.Context()), jo))
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	jo, err := h.service.Get(r.Context(), chi.URLParam(r, idParam))
	if err != nil {
		writeError(w, err)
		return
	}

	p := middleware.GetPrincipal(r.Context())
	core.OK(w, ShowResponse{JobOrder: present(p, jo), Auth: authHintFor(p)})
}

// authorizedForEdit reloads the job order and repeats the edit decision
// independently of the route guard.
func (h *Handler) authorizedForEdit(
	w http.ResponseWriter,
	r *http.Request,
) (*JobOrder, bool) {
	jo, err := h.service.Get(r.Context(), chi.URLParam(r, idParam))
	if err != nil {
		writeError(w, err)
		return nil, false
	}

	p := middleware.GetPrincipal(r.Context())

	var s authz.Subject
	if p != nil {
		s = p
	}

	if err := authz.AuthorizeEdit(s, jo.Assignment()); err != nil {
		writeDenied(w, err)
		return nil, false
	}

	return jo, true
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	jo, ok := h.authorizedForEdit(w, r)
	if !ok {
		return
	}

	users, err := h.service.Assignees(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	p := middleware.GetPrincipal(r.Context())
	core.OK(w, EditResponse{
		JobOrder: present(p, jo),
		Users:    nonNil(users),
		Auth:     authHintFor(p),
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	current, ok := h.authorizedForEdit(w, r)
	if !ok {
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Update(r.Context(), current, req)
	if err != nil {
		writeError(w, err)
		return
	}

	if fresh, err := h.service.Get(r.Context(), updated.ID); err == nil {
		updated = fresh
	}

	core.OK(w, present(middleware.GetPrincipal(r.Context()), updated))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, idParam)); err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

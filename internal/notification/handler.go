// AngelaMos | 2026
// handler.go

package notification

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/joborders/internal/core"
	"github.com/carterperez-dev/joborders/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the caller's own notifications. The router must
// already carry the authenticator.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/mark-all-as-read", h.MarkAllAsRead)
		r.Post("/{notificationID}/mark-as-read", h.MarkAsRead)
		r.Delete("/{notificationID}", h.Delete)
		r.Delete("/", h.DeleteAll)
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "notification")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, middleware.DeniedMessage)
	default:
		core.InternalServerError(w, err)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToListResponse(items, h.service.Now()))
}

func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	err := h.service.MarkAsRead(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "notificationID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.MarkAllAsRead(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, BulkResponse{Affected: n})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "notificationID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.DeleteAll(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, BulkResponse{Affected: n})
}

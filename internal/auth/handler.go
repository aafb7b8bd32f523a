// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

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

// RegisterRoutes mounts the public login endpoints and, behind
// authenticator, the session management endpoints.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Get("/me", h.Me)
			r.Post("/logout", h.Logout)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.Sessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
			r.Post("/change-password", h.ChangePassword)
		})
	})
}

// decode reads and validates a JSON body. An empty body is accepted when
// optional is set.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) && optional {
		return true
	}
	if err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func clientOf(r *http.Request) Client {
	return Client{UserAgent: r.UserAgent(), IPAddress: middleware.ClientIP(r)}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		core.JSONError(w, core.UnauthorizedError("invalid email or password"))
	case errors.Is(err, ErrEmailExists):
		core.JSONError(w, core.DuplicateError("email"))
	case errors.Is(err, ErrTokenReuse):
		core.JSONError(w, core.NewAppError(
			core.ErrTokenRevoked,
			"security alert: token reuse detected, session revoked",
			http.StatusUnauthorized,
			"TOKEN_REUSE_DETECTED",
		))
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	case errors.Is(err, core.ErrTokenInvalid):
		core.JSONError(w, core.TokenInvalidError())
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "session")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "session belongs to another user")
	default:
		core.InternalServerError(w, err)
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	resp, err := h.service.Login(r.Context(), req, clientOf(r))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	resp, err := h.service.Register(r.Context(), req, clientOf(r))
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken, clientOf(r))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	err := h.service.Logout(
		r.Context(),
		middleware.GetClaims(r.Context()),
		middleware.ExtractToken(r),
		req.RefreshToken,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.LogoutAll(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessions, err := h.service.Sessions(ctx, middleware.GetUserID(ctx), middleware.GetSessionID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	err := h.service.RevokeSession(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "sessionID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	err := h.service.ChangePassword(r.Context(), middleware.GetUserID(r.Context()), req)
	if errors.Is(err, ErrInvalidCredentials) {
		core.JSONError(w, core.UnauthorizedError("current password is incorrect"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context(), middleware.GetUserID(r.Context()))
	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "user")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, user)
}

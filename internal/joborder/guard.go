// AngelaMos | 2026
// guard.go

package joborder

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/joborders/internal/authz"
	"github.com/carterperez-dev/joborders/internal/core"
	"github.com/carterperez-dev/joborders/internal/middleware"
)

const idParam = "jobOrderID"

type finder interface {
	Get(ctx context.Context, id string) (*JobOrder, error)
}

// Guard is the route-level enforcement point. It refuses the request before
// any handler runs.
type Guard struct {
	orders finder
	logger *slog.Logger
}

func NewGuard(orders finder, logger *slog.Logger) *Guard {
	return &Guard{orders: orders, logger: logger}
}

// RequireEdit admits staff and users assigned to the job order named by the
// route. A missing job order is a 404, never a 403.
func (g *Guard) RequireEdit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := middleware.GetPrincipal(r.Context())
		if p == nil {
			g.refuse(w, r, authz.AuthorizeEdit(nil, authz.Assignment{}))
			return
		}

		jo, err := g.orders.Get(r.Context(), chi.URLParam(r, idParam))
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				core.NotFound(w, "job order")
				return
			}
			core.InternalServerError(w, err)
			return
		}

		if err := authz.AuthorizeEdit(p, jo.Assignment()); err != nil {
			g.refuse(w, r, err)
			return
		}

		middleware.RecordAuthzDecision(string(authz.ActionEdit), true)
		next.ServeHTTP(w, r)
	})
}

// RequireDelete admits admins and moderators only.
func (g *Guard) RequireDelete(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := middleware.GetPrincipal(r.Context())

		var s authz.Subject
		if p != nil {
			s = p
		}

		if err := authz.AuthorizeDelete(s); err != nil {
			g.refuse(w, r, err)
			return
		}

		middleware.RecordAuthzDecision(string(authz.ActionDelete), true)
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) refuse(w http.ResponseWriter, r *http.Request, err error) {
	writeDenied(w, err)

	var denied *authz.DeniedError
	if !errors.As(err, &denied) {
		return
	}

	middleware.RecordAuthzDecision(string(denied.Action), false)
	g.logger.Info("job order access denied",
		"action", denied.Action,
		"job_order_id", chi.URLParam(r, idParam),
		"user_id", middleware.GetUserID(r.Context()),
		"request_id", middleware.GetRequestID(r.Context()),
	)
}

// writeDenied renders a refusal as 403 with its reason.
func writeDenied(w http.ResponseWriter, err error) {
	reason, ok := authz.DenialReason(err)
	if !ok {
		core.InternalServerError(w, err)
		return
	}
	core.Forbidden(w, reason)
}

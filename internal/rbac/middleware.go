package rbac

import (
	"log/slog"
	"net/http"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireAuthenticated rejects requests without an active session user with 401.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, r, ok := m.resolve(w, r)
		if !ok {
			return
		}
		if !p.Active {
			deny(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects non-admin users with 403 and anonymous requests with 401.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, r, ok := m.resolve(w, r)
		if !ok {
			return
		}
		if !p.Active {
			deny(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !p.IsAdmin() {
			deny(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolve returns the request principal, loading it at most once per request.
// It writes the error response itself and reports false when the chain must stop.
func (m Middleware) resolve(w http.ResponseWriter, r *http.Request) (Principal, *http.Request, bool) {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		return p, r, true
	}
	userID := shared.SessionFromContext(r.Context()).UserID()
	if userID == 0 {
		deny(w, http.StatusUnauthorized, "authentication required")
		return Principal{}, r, false
	}
	p, err := m.Service.EffectivePrincipal(r.Context(), userID)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac resolve principal", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		deny(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return Principal{}, r, false
	}
	ctx := ContextWithPrincipal(r.Context(), p)
	ctx = shared.ContextWithActor(ctx, userID)
	return p, r.WithContext(ctx), true
}

func deny(w http.ResponseWriter, status int, msg string) {
	httpx.JSON(w, status, httpx.ErrorBody{Error: msg})
}

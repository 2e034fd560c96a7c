package auth

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/rbac"
	"github.com/nutri-erp/nutri-erp/internal/shared"
	"github.com/nutri-erp/nutri-erp/internal/users"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	rbac           rbac.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, sessionManager: sessions, csrfManager: csrf, rbac: rbac}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.csrfToken)
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated)
		r.Post("/logout", h.handleLogout)
		r.Get("/profile", h.showProfile)
		r.Put("/profile", h.updateProfile)
		r.Post("/change-password", h.changePassword)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Fail(h.logger, w, r, errNoSession)
		return
	}
	if err := h.sessionManager.Renew(r.Context(), sess); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	u, err := h.service.Login(r.Context(), input, sess.ID, h.sessionManager.TTL(), clientIP(r), r.UserAgent())
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	sess.SetUser(u.ID)
	h.logger.Info("user logged in", slog.Int64("user_id", u.ID))
	httpx.JSON(w, http.StatusOK, u)
}

// csrfToken hands JSON clients the token to echo in the X-CSRF-Token header.
func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrfManager.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.Logout(r.Context(), sess.UserID(), sess.ID, clientIP(r)); err != nil {
		h.logger.Warn("logout bookkeeping", slog.Any("error", err))
	}
	h.sessionManager.Destroy(sess)
	httpx.NoContent(w)
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Profile(r.Context(), shared.SessionFromContext(r.Context()).UserID())
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var input users.UpdateUserInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.UpdateProfile(r.Context(), shared.SessionFromContext(r.Context()).UserID(), input)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var input ChangePasswordInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), shared.SessionFromContext(r.Context()).UserID(), input); err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "password changed")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/rbac"
	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Handler manages user administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers admin-only user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAdmin)
		r.Get("/", h.listUsers)
		r.Post("/", h.createUser)
		r.Get("/{id}", h.showUser)
		r.Put("/{id}", h.updateUser)
		r.Post("/{id}/activate", h.activateUser)
		r.Post("/{id}/deactivate", h.deactivateUser)
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := shared.QueryPage(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	active, err := httpx.QueryBool(r, "active")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	users, err := h.service.ListUsers(r.Context(), ListFilters{
		Name:        httpx.QueryString(r, "name"),
		Email:       httpx.QueryString(r, "email"),
		AccessLevel: httpx.QueryString(r, "access_level"),
		Active:      active,
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewList(users, page))
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var input CreateUserInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.CreateUser(r.Context(), input)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input UpdateUserInput
	if err := httpx.Bind(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.UpdateUser(r.Context(), id, input)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) activateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) deactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.SetActive(r.Context(), id, active)
	if err != nil {
		httpx.Fail(h.logger, w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nutri-erp/nutri-erp/internal/audit"
	audithttp "github.com/nutri-erp/nutri-erp/internal/audit/http"
	"github.com/nutri-erp/nutri-erp/internal/auth"
	"github.com/nutri-erp/nutri-erp/internal/observability"
	"github.com/nutri-erp/nutri-erp/internal/rbac"
	"github.com/nutri-erp/nutri-erp/internal/shared"
	_ "github.com/nutri-erp/nutri-erp/internal/testing/guard"
	"github.com/nutri-erp/nutri-erp/internal/users"
)

type noUsers struct{}

func (noUsers) FindByEmail(context.Context, string) (users.User, error) {
	return users.User{}, users.ErrNotFound
}

func (noUsers) GetUser(context.Context, int64) (users.User, error) {
	return users.User{}, users.ErrNotFound
}

func (noUsers) UpdateProfile(context.Context, int64, users.UpdateUserInput) (users.User, error) {
	return users.User{}, users.ErrNotFound
}

func (noUsers) TouchLastAccess(context.Context, int64) error { return nil }

func (noUsers) LoadPrincipal(context.Context, int64) (rbac.Principal, error) {
	return rbac.Principal{}, rbac.ErrNotFound
}

type noSessions struct{}

func (noSessions) CreateSession(context.Context, string, int64, time.Time, string, string) error {
	return nil
}

func (noSessions) DeleteSession(context.Context, string) error { return nil }

func (noSessions) LogAccess(context.Context, auth.AccessEntry) error { return nil }

type emptyAudit struct{}

func (emptyAudit) AuditTimeline(context.Context, audit.TimelineFilters, int, int) ([]audit.TimelineRow, error) {
	return nil, nil
}

func (emptyAudit) AccessLog(context.Context, audit.TimelineFilters, int, int) ([]audit.AccessRow, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, cfg *Config) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sessions := shared.NewSessionManager(rdb, "nutri_session", time.Hour, false)
	csrf := shared.NewCSRFManager("test-secret")
	guard := rbac.Middleware{Service: rbac.NewService(noUsers{})}
	authHandler := auth.NewHandler(nil, auth.NewService(noSessions{}, noUsers{}), sessions, csrf, guard)

	return NewRouter(RouterParams{
		Config:         cfg,
		SessionManager: sessions,
		CSRFManager:    csrf,
		RBACMiddleware: guard,
		AuthHandler:    authHandler,
		AuditHandler:   audithttp.NewHandler(nil, audit.NewService(emptyAudit{}), guard),
		Metrics:        observability.NewMetrics(),
	})
}

func TestRouterHealthzAndSecureHeaders(t *testing.T) {
	router := newTestRouter(t, &Config{RateLimitPerMinute: 1000})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestRouterUnknownRouteIsJSON404(t *testing.T) {
	router := newTestRouter(t, &Config{RateLimitPerMinute: 1000})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "route not found")
}

func TestRouterAnonymousRequestsAreRejected(t *testing.T) {
	router := newTestRouter(t, &Config{RateLimitPerMinute: 1000})

	for _, path := range []string{"/api/auth/profile", "/api/audit/logs"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestRouterCSRFEnforcement(t *testing.T) {
	router := newTestRouter(t, &Config{RateLimitPerMinute: 1000, CSRFEnforce: true})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.c","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &Config{RateLimitPerMinute: 1000})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `nutri_http_requests_total{code="200",route="/healthz"}`)
}

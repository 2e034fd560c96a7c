package audithttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/nutri-erp/nutri-erp/internal/audit"
	"github.com/nutri-erp/nutri-erp/internal/rbac"
)

type stubService struct {
	last audit.TimelineFilters
}

func (s *stubService) Timeline(_ context.Context, f audit.TimelineFilters) (audit.Result[audit.TimelineRow], error) {
	s.last = f
	return audit.Result[audit.TimelineRow]{Rows: []audit.TimelineRow{}}, nil
}

func (s *stubService) AccessLog(_ context.Context, f audit.TimelineFilters) (audit.Result[audit.AccessRow], error) {
	s.last = f
	return audit.Result[audit.AccessRow]{Rows: []audit.AccessRow{}}, nil
}

func (s *stubService) Export(_ context.Context, f audit.TimelineFilters) ([]audit.TimelineRow, error) {
	s.last = f
	return []audit.TimelineRow{{Action: "user.create", Entity: "user", EntityID: "2"}}, nil
}

func newRouter(svc *stubService) chi.Router {
	h := NewHandler(nil, svc, rbac.Middleware{})
	h.WithNow(func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) })
	r := chi.NewRouter()
	r.Route("/api/audit", h.MountRoutes)
	return r
}

func do(r chi.Router, path string, p *rbac.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if p != nil {
		req = req.WithContext(rbac.ContextWithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLogsRequireAdmin(t *testing.T) {
	r := newRouter(&stubService{})
	rec := do(r, "/api/audit/logs", &rbac.Principal{UserID: 2, AccessLevel: rbac.LevelUser, Active: true})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogsDefaultRangeAndValidation(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)
	admin := &rbac.Principal{UserID: 1, AccessLevel: rbac.LevelAdmin, Active: true}

	rec := do(r, "/api/audit/logs?entity=registry&actor_id=4", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2026-03-08", svc.last.From.Format("2006-01-02"))
	require.Equal(t, "2026-03-15", svc.last.To.Format("2006-01-02"))
	require.Equal(t, "registry", svc.last.Entity)
	require.Equal(t, int64(4), *svc.last.ActorID)

	rec = do(r, "/api/audit/access-logs?from=2026-03-10&to=2026-03-01", admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, "/api/audit/logs?from=2025-01-01&to=2026-03-01", admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, "/api/audit/logs?page=0", admin)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportCSV(t *testing.T) {
	r := newRouter(&stubService{})
	rec := do(r, "/api/audit/logs/export.csv", &rbac.Principal{UserID: 1, AccessLevel: rbac.LevelAdmin, Active: true})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.True(t, strings.HasPrefix(rec.Body.String(), "at,actor_id,actor_name"))
	require.Contains(t, rec.Body.String(), "user.create")
}

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nutri-erp/nutri-erp/internal/auth"
	"github.com/nutri-erp/nutri-erp/internal/rbac"
	"github.com/nutri-erp/nutri-erp/internal/shared"
	"github.com/nutri-erp/nutri-erp/internal/users"
	_ "github.com/nutri-erp/nutri-erp/testing"
)

type stubUsers struct {
	byID    map[int64]users.User
	touched []int64
}

func (s *stubUsers) FindByEmail(_ context.Context, email string) (users.User, error) {
	for _, u := range s.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (s *stubUsers) GetUser(_ context.Context, id int64) (users.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (s *stubUsers) UpdateProfile(_ context.Context, id int64, input users.UpdateUserInput) (users.User, error) {
	u := s.byID[id]
	if input.JobTitle != nil {
		u.JobTitle = *input.JobTitle
	}
	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.MinCost)
		if err != nil {
			return users.User{}, err
		}
		u.PasswordHash = string(hash)
	}
	s.byID[id] = u
	return u, nil
}

func (s *stubUsers) TouchLastAccess(_ context.Context, id int64) error {
	s.touched = append(s.touched, id)
	return nil
}

func (s *stubUsers) LoadPrincipal(_ context.Context, id int64) (rbac.Principal, error) {
	u, ok := s.byID[id]
	if !ok {
		return rbac.Principal{}, rbac.ErrNotFound
	}
	return rbac.Principal{UserID: id, AccessLevel: u.AccessLevel, Active: u.IsActive}, nil
}

type stubRepo struct {
	sessions map[string]int64
	access   []auth.AccessEntry
}

func (s *stubRepo) CreateSession(_ context.Context, id string, userID int64, _ time.Time, _, _ string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubRepo) LogAccess(_ context.Context, entry auth.AccessEntry) error {
	s.access = append(s.access, entry)
	return nil
}

type client struct {
	t        *testing.T
	router   chi.Router
	sessions *shared.SessionManager
	cookie   string
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != "" {
		req.AddCookie(&http.Cookie{Name: c.sessions.CookieName(), Value: c.cookie})
	}
	sess, err := c.sessions.Load(context.Background(), req)
	require.NoError(c.t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req.WithContext(ctx))
	require.NoError(c.t, c.sessions.Commit(ctx, httptest.NewRecorder(), sess))
	if sess.Destroyed() {
		c.cookie = ""
	} else if sess.UserID() != 0 {
		c.cookie = sess.ID
	}
	return rec
}

func newClient(t *testing.T) (*client, *stubUsers, *stubRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	people := &stubUsers{byID: map[int64]users.User{
		1: {ID: 1, Name: "Ana", Email: "ana@test.local", PasswordHash: string(hash), AccessLevel: users.LevelUser, IsActive: true},
		2: {ID: 2, Name: "Bia", Email: "bia@test.local", PasswordHash: string(hash), AccessLevel: users.LevelUser, IsActive: false},
	}}
	repo := &stubRepo{sessions: map[string]int64{}}

	mr := miniredis.RunT(t)
	sessions := shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test_session", time.Hour, false)
	mw := rbac.Middleware{Service: rbac.NewService(people)}
	handler := auth.NewHandler(nil, auth.NewService(repo, people), sessions, shared.NewCSRFManager("csrfsecret"), mw)

	r := chi.NewRouter()
	r.Route("/api/auth", handler.MountRoutes)
	return &client{t: t, router: r, sessions: sessions}, people, repo
}

func TestLoginValidation(t *testing.T) {
	c, _, _ := newClient(t)
	rec := c.do(http.MethodPost, "/api/auth/login", `{"email":"ana@test.local"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRejectsBadCredentialsAndInactiveUsers(t *testing.T) {
	c, _, repo := newClient(t)

	rec := c.do(http.MethodPost, "/api/auth/login", `{"email":"ana@test.local","password":"wrongpass"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do(http.MethodPost, "/api/auth/login", `{"email":"nobody@test.local","password":"correctpass"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do(http.MethodPost, "/api/auth/login", `{"email":"bia@test.local","password":"correctpass"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	require.Len(t, repo.access, 3)
	for _, entry := range repo.access {
		require.Equal(t, auth.ActionLoginFailed, entry.Action)
	}
	require.Empty(t, repo.sessions)
	require.Empty(t, c.cookie)
}

func TestLoginProfileLogout(t *testing.T) {
	c, people, repo := newClient(t)

	rec := c.do(http.MethodGet, "/api/auth/profile", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do(http.MethodPost, "/api/auth/login", `{"email":"ANA@test.local","password":"correctpass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "password")
	require.NotEmpty(t, c.cookie)
	require.Equal(t, int64(1), repo.sessions[c.cookie])
	require.Equal(t, []int64{1}, people.touched)
	require.Equal(t, auth.ActionLogin, repo.access[len(repo.access)-1].Action)

	rec = c.do(http.MethodGet, "/api/auth/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var profile users.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, "ana@test.local", profile.Email)

	rec = c.do(http.MethodPut, "/api/auth/profile", `{"job_title":"Nutritionist"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Nutritionist", people.byID[1].JobTitle)

	sessionID := c.cookie
	rec = c.do(http.MethodPost, "/api/auth/logout", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, c.cookie)
	require.NotContains(t, repo.sessions, sessionID)
	require.Equal(t, auth.ActionLogout, repo.access[len(repo.access)-1].Action)

	rec = c.do(http.MethodGet, "/api/auth/profile", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCSRFTokenIsStable(t *testing.T) {
	c, _, _ := newClient(t)
	rec := c.do(http.MethodPost, "/api/auth/login", `{"email":"ana@test.local","password":"correctpass"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var first, second map[string]string
	rec = c.do(http.MethodGet, "/api/auth/csrf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.NotEmpty(t, first["csrf_token"])

	rec = c.do(http.MethodGet, "/api/auth/csrf", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	require.Equal(t, first["csrf_token"], second["csrf_token"])
}

func TestChangePassword(t *testing.T) {
	c, people, _ := newClient(t)
	rec := c.do(http.MethodPost, "/api/auth/login", `{"email":"ana@test.local","password":"correctpass"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodPost, "/api/auth/change-password", `{"current_password":"wrongpass","new_password":"brandnew1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/auth/change-password", `{"current_password":"correctpass","new_password":"short"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/auth/change-password", `{"current_password":"correctpass","new_password":"brandnew1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(people.byID[1].PasswordHash), []byte("brandnew1")))
}

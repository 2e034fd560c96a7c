package users_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
	"github.com/nutri-erp/nutri-erp/internal/users"
)

type memoryRepo struct {
	users  map[int64]users.User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[int64]users.User{}}
}

func (m *memoryRepo) ListUsers(_ context.Context, f users.ListFilters) ([]users.User, error) {
	var out []users.User
	for id := int64(1); id <= m.nextID; id++ {
		u, ok := m.users[id]
		if !ok {
			continue
		}
		if f.Active != nil && u.IsActive != *f.Active {
			continue
		}
		if f.AccessLevel != nil && u.AccessLevel != *f.AccessLevel {
			continue
		}
		if f.Name != nil && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(*f.Name)) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryRepo) GetUser(_ context.Context, id int64) (users.User, error) {
	u, ok := m.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (m *memoryRepo) FindByEmail(_ context.Context, email string) (users.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (m *memoryRepo) InsertUser(_ context.Context, u users.User) (users.User, error) {
	m.nextID++
	u.ID = m.nextID
	m.users[u.ID] = u
	return u, nil
}

func (m *memoryRepo) UpdateUser(_ context.Context, u users.User) (users.User, error) {
	if _, ok := m.users[u.ID]; !ok {
		return users.User{}, users.ErrNotFound
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memoryRepo) TouchLastAccess(context.Context, int64) error { return nil }

type recordingAudit struct {
	actions []string
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

func newService() (*users.Service, *memoryRepo, *recordingAudit) {
	repo := newMemoryRepo()
	audit := &recordingAudit{}
	svc := users.NewService(repo, audit)
	svc.WithHashCost(bcrypt.MinCost)
	return svc, repo, audit
}

func ptr[T any](v T) *T { return &v }

func TestCreateUserHashesPasswordAndDefaults(t *testing.T) {
	svc, _, audit := newService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, users.CreateUserInput{Name: " Ana ", Email: "Ana@Example.com", Password: "secret123"})
	require.NoError(t, err)
	require.Equal(t, "Ana", u.Name)
	require.Equal(t, "ana@example.com", u.Email)
	require.Equal(t, users.LevelUser, u.AccessLevel)
	require.True(t, u.IsActive)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")))
	require.Equal(t, []string{"user.create"}, audit.actions)

	_, err = svc.CreateUser(ctx, users.CreateUserInput{Name: "Other", Email: "ana@example.com", Password: "secret123"})
	require.True(t, errors.Is(err, httpx.ErrDuplicate))

	_, err = svc.CreateUser(ctx, users.CreateUserInput{Name: "Short", Email: "short@example.com", Password: "abc"})
	require.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestUpdateUserAndActivation(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	a, err := svc.CreateUser(ctx, users.CreateUserInput{Name: "Ana", Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)
	b, err := svc.CreateUser(ctx, users.CreateUserInput{Name: "Bia", Email: "bia@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, b.ID, users.UpdateUserInput{Email: ptr("ANA@example.com")})
	require.True(t, errors.Is(err, httpx.ErrDuplicate))

	updated, err := svc.UpdateUser(ctx, a.ID, users.UpdateUserInput{Email: ptr("ana@example.com"), AccessLevel: ptr(users.LevelAdmin), Department: ptr("Nutrition")})
	require.NoError(t, err)
	require.True(t, updated.IsAdmin())
	require.Equal(t, "Nutrition", updated.Department)

	off, err := svc.SetActive(ctx, b.ID, false)
	require.NoError(t, err)
	require.False(t, off.IsActive)

	list, err := svc.ListUsers(ctx, users.ListFilters{Active: ptr(true)})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, a.ID, list[0].ID)

	_, err = svc.GetUser(ctx, 99)
	require.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestUpdateProfileCannotChangeAccessLevel(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, users.CreateUserInput{Name: "Ana", Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, u.ID, users.UpdateUserInput{AccessLevel: ptr(users.LevelAdmin)})
	require.True(t, errors.Is(err, httpx.ErrValidation))

	got, err := svc.UpdateProfile(ctx, u.ID, users.UpdateUserInput{JobTitle: ptr("Nutritionist"), IsActive: ptr(false)})
	require.NoError(t, err)
	require.Equal(t, "Nutritionist", got.JobTitle)
	require.True(t, got.IsActive)
	require.Equal(t, users.LevelUser, got.AccessLevel)
}

package users

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filters ListFilters) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	InsertUser(ctx context.Context, u User) (User, error)
	UpdateUser(ctx context.Context, u User) (User, error)
	TouchLastAccess(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cost  int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost, mainly to speed up tests.
func (s *Service) WithHashCost(cost int) {
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		s.cost = cost
	}
}

// ListUsers returns users ordered by name.
func (s *Service) ListUsers(ctx context.Context, filters ListFilters) ([]User, error) {
	page := shared.NewPage(filters.Limit, filters.Offset)
	filters.Limit, filters.Offset = page.Limit, page.Offset
	return s.repo.ListUsers(ctx, filters)
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return User{}, shared.NotFoundf("user %d", id)
	}
	return u, err
}

// FindByEmail returns the user registered under email.
func (s *Service) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.FindByEmail(ctx, normaliseEmail(email))
}

// TouchLastAccess records a successful sign in.
func (s *Service) TouchLastAccess(ctx context.Context, id int64) error {
	return s.repo.TouchLastAccess(ctx, id)
}

// CreateUser registers a user with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (User, error) {
	u := User{
		Name:        strings.TrimSpace(input.Name),
		Email:       normaliseEmail(input.Email),
		JobTitle:    deref(input.JobTitle),
		Department:  deref(input.Department),
		AccessLevel: LevelUser,
		IsActive:    true,
	}
	if input.AccessLevel != nil {
		u.AccessLevel = *input.AccessLevel
	}
	if input.IsActive != nil {
		u.IsActive = *input.IsActive
	}
	if u.Name == "" {
		return User{}, shared.Validationf("name is required")
	}
	if err := s.ensureEmailFree(ctx, u.Email, 0); err != nil {
		return User{}, err
	}
	hash, err := s.hash(input.Password)
	if err != nil {
		return User{}, err
	}
	u.PasswordHash = hash
	created, err := s.repo.InsertUser(ctx, u)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, "user.create", created.ID, map[string]any{"access_level": created.AccessLevel})
	return created, nil
}

// UpdateUser applies the supplied fields.
func (s *Service) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if input.Name != nil {
		u.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		u.Email = normaliseEmail(*input.Email)
		if err := s.ensureEmailFree(ctx, u.Email, u.ID); err != nil {
			return User{}, err
		}
	}
	if input.Password != nil {
		hash, err := s.hash(*input.Password)
		if err != nil {
			return User{}, err
		}
		u.PasswordHash = hash
	}
	if input.JobTitle != nil {
		u.JobTitle = *input.JobTitle
	}
	if input.Department != nil {
		u.Department = *input.Department
	}
	if input.AccessLevel != nil {
		u.AccessLevel = *input.AccessLevel
	}
	if input.IsActive != nil {
		u.IsActive = *input.IsActive
	}
	if u.Name == "" {
		return User{}, shared.Validationf("name is required")
	}
	updated, err := s.repo.UpdateUser(ctx, u)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, "user.update", id, nil)
	return updated, nil
}

// UpdateProfile lets a user edit their own account. The access level and
// active flag cannot be changed this way.
func (s *Service) UpdateProfile(ctx context.Context, id int64, input UpdateUserInput) (User, error) {
	if input.AccessLevel != nil {
		return User{}, shared.Validationf("access level cannot be changed from the profile")
	}
	input.IsActive = nil
	return s.UpdateUser(ctx, id, input)
}

// SetActive activates or deactivates a user.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	return s.UpdateUser(ctx, id, UpdateUserInput{IsActive: &active})
}

func (s *Service) ensureEmailFree(ctx context.Context, email string, self int64) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return shared.Duplicatef("email %s is already registered", email)
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	if len(password) < 8 {
		return "", shared.Validationf("password must have at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "user", EntityID: strconv.FormatInt(id, 10), Meta: meta})
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

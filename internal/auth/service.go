package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
	"github.com/nutri-erp/nutri-erp/internal/shared"
	"github.com/nutri-erp/nutri-erp/internal/users"
)

// UserPort is the slice of the users service needed for authentication.
type UserPort interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
	GetUser(ctx context.Context, id int64) (users.User, error)
	UpdateProfile(ctx context.Context, id int64, input users.UpdateUserInput) (users.User, error)
	TouchLastAccess(ctx context.Context, id int64) error
}

// Service wraps authentication business rules.
type Service struct {
	repo  Repository
	users UserPort
	now   func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, users UserPort) *Service {
	return &Service{repo: repo, users: users, now: time.Now}
}

// WithNow overrides the clock used for session expiry.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Authenticate validates email/password credentials. Unknown emails, wrong
// passwords and inactive accounts all fail with ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, users.ErrNotFound) {
		return users.User{}, unauthorized(shared.ErrInvalidCredentials)
	}
	if err != nil {
		return users.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return u, unauthorized(shared.ErrInvalidCredentials)
	}
	if !u.IsActive {
		return u, unauthorized(shared.ErrInactiveUser)
	}
	return u, nil
}

// Login authenticates and records the session, the access log and the
// last access time. Failures are logged as login_failed.
func (s *Service) Login(ctx context.Context, input LoginInput, sessionID string, ttl time.Duration, ip, ua string) (users.User, error) {
	u, err := s.Authenticate(ctx, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, httpx.ErrUnauthorized) {
			_ = s.repo.LogAccess(ctx, AccessEntry{UserID: u.ID, IP: ip, Action: ActionLoginFailed, Details: input.Email, At: s.now()})
		}
		return users.User{}, err
	}
	if err := s.repo.CreateSession(ctx, sessionID, u.ID, s.now().Add(ttl), ip, ua); err != nil {
		return users.User{}, err
	}
	if err := s.repo.LogAccess(ctx, AccessEntry{UserID: u.ID, IP: ip, Action: ActionLogin, At: s.now()}); err != nil {
		return users.User{}, err
	}
	if err := s.users.TouchLastAccess(ctx, u.ID); err != nil {
		return users.User{}, err
	}
	return u, nil
}

// Logout logs the event and removes the session record.
func (s *Service) Logout(ctx context.Context, userID int64, sessionID, ip string) error {
	if err := s.repo.LogAccess(ctx, AccessEntry{UserID: userID, IP: ip, Action: ActionLogout, At: s.now()}); err != nil {
		return err
	}
	return s.repo.DeleteSession(ctx, sessionID)
}

// Profile returns the current user.
func (s *Service) Profile(ctx context.Context, userID int64) (users.User, error) {
	return s.users.GetUser(ctx, userID)
}

// UpdateProfile edits the current user's own account.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, input users.UpdateUserInput) (users.User, error) {
	return s.users.UpdateProfile(ctx, userID, input)
}

// ChangePassword verifies the current password before storing the new one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, input ChangePasswordInput) error {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return shared.Validationf("current password is incorrect")
	}
	_, err = s.users.UpdateProfile(ctx, userID, users.UpdateUserInput{Password: &input.NewPassword})
	return err
}

func unauthorized(err error) error {
	return fmt.Errorf("%w: %w", httpx.ErrUnauthorized, err)
}

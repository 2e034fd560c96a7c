package auth

import (
	"errors"
	"time"
)

// Access log actions.
const (
	ActionLogin       = "login"
	ActionLoginFailed = "login_failed"
	ActionLogout      = "logout"
)

// AccessEntry is one row of the access log.
type AccessEntry struct {
	UserID  int64
	IP      string
	Action  string
	Details string
	At      time.Time
}

// ChangePasswordInput replaces the current user's password.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var errNoSession = errors.New("auth: session middleware not installed")

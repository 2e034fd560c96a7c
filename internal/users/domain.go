package users

import (
	"errors"
	"time"
)

// Access levels.
const (
	LevelAdmin = "admin"
	LevelUser  = "user"
)

// ErrNotFound is returned when no user matches.
var ErrNotFound = errors.New("user not found")

// User is an account allowed to sign in.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	JobTitle     string     `json:"job_title"`
	Department   string     `json:"department"`
	AccessLevel  string     `json:"access_level"`
	IsActive     bool       `json:"is_active"`
	LastAccessAt *time.Time `json:"last_access_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user may manage other users.
func (u User) IsAdmin() bool {
	return u.AccessLevel == LevelAdmin
}

// ListFilters narrows user listings.
type ListFilters struct {
	Name        *string
	Email       *string
	AccessLevel *string
	Active      *bool
	Limit       int
	Offset      int
}

// CreateUserInput registers a user.
type CreateUserInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8"`
	JobTitle    *string `json:"job_title,omitempty"`
	Department  *string `json:"department,omitempty"`
	AccessLevel *string `json:"access_level,omitempty" validate:"omitempty,oneof=admin user"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// UpdateUserInput changes a user. Nil fields are left untouched.
type UpdateUserInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=8"`
	JobTitle    *string `json:"job_title,omitempty"`
	Department  *string `json:"department,omitempty"`
	AccessLevel *string `json:"access_level,omitempty" validate:"omitempty,oneof=admin user"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

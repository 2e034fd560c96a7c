package suppliers

import (
	"time"
)

// Supplier represents a supplier entity. CNPJ is stored as 14 digits.
type Supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CNPJ      string    `json:"cnpj"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Contact   string    `json:"contact"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilters narrows List results.
type ListFilters struct {
	Name   *string
	CNPJ   *string
	Status *string
	Limit  int
	Offset int
}

// CreateRequest carries the fields accepted when registering a supplier.
type CreateRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	CNPJ    string  `json:"cnpj" validate:"required"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Contact *string `json:"contact,omitempty"`
	Status  *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	Notes   *string `json:"notes,omitempty"`
}

// UpdateRequest carries optional field changes.
type UpdateRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	CNPJ    *string `json:"cnpj,omitempty"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Contact *string `json:"contact,omitempty"`
	Status  *string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	Notes   *string `json:"notes,omitempty"`
}

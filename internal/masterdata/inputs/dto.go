package inputs

import "github.com/shopspring/decimal"

// CreateRequest carries the fields accepted when registering an input.
type CreateRequest struct {
	Code         string           `json:"code" validate:"required,max=50"`
	Name         string           `json:"name" validate:"required,max=200"`
	Description  *string          `json:"description,omitempty"`
	Unit         string           `json:"unit" validate:"required,max=20"`
	Category     *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	MinimumStock *decimal.Decimal `json:"minimum_stock,omitempty"`
	CurrentStock *decimal.Decimal `json:"current_stock,omitempty"`
	Status       *string          `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	Notes        *string          `json:"notes,omitempty"`
}

// UpdateRequest carries optional field changes. Current stock is not editable.
type UpdateRequest struct {
	Code         *string          `json:"code,omitempty" validate:"omitempty,min=1,max=50"`
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string          `json:"description,omitempty"`
	Unit         *string          `json:"unit,omitempty" validate:"omitempty,min=1,max=20"`
	Category     *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	MinimumStock *decimal.Decimal `json:"minimum_stock,omitempty"`
	Status       *string          `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	Notes        *string          `json:"notes,omitempty"`
}

// View is the JSON representation returned by the API.
type View struct {
	Input
	BelowMinimum bool `json:"below_minimum"`
}

func toView(in Input) View {
	return View{Input: in, BelowMinimum: in.BelowMinimum()}
}

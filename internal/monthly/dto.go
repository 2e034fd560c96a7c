package monthly

import (
	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// DeliveryInput describes a delivery to post.
type DeliveryInput struct {
	DeliveryDate  shared.Date      `json:"delivery_date"`
	Quantity      decimal.Decimal  `json:"quantity"`
	TotalValue    *decimal.Decimal `json:"total_value,omitempty"`
	PaymentStatus *string          `json:"payment_status,omitempty" validate:"omitempty,oneof=pending partial paid cancelled"`
	InvoiceID     *int64           `json:"invoice_id,omitempty" validate:"omitempty,gt=0"`
	ContractID    *int64           `json:"contract_id,omitempty" validate:"omitempty,gt=0"`
	Notes         *string          `json:"notes,omitempty"`
}

// CreateDeliveryInput posts a delivery against a registry.
type CreateDeliveryInput struct {
	RegistryID int64 `json:"registry_id"`
	DeliveryInput
}

// UpdateDeliveryInput changes a delivery. Nil fields are left untouched.
type UpdateDeliveryInput struct {
	DeliveryDate  *shared.Date     `json:"delivery_date,omitempty"`
	Quantity      *decimal.Decimal `json:"quantity,omitempty"`
	TotalValue    *decimal.Decimal `json:"total_value,omitempty"`
	PaymentStatus *string          `json:"payment_status,omitempty" validate:"omitempty,oneof=pending partial paid cancelled"`
	InvoiceID     *int64           `json:"invoice_id,omitempty" validate:"omitempty,gt=0"`
	ContractID    *int64           `json:"contract_id,omitempty" validate:"omitempty,gt=0"`
	Notes         *string          `json:"notes,omitempty"`
}

// CreateRegistryInput opens a registry, optionally with deliveries.
type CreateRegistryInput struct {
	InputID            int64            `json:"input_id" validate:"required,gt=0"`
	ReferenceMonth     shared.Month     `json:"reference_month"`
	OpeningStock       *decimal.Decimal `json:"opening_stock,omitempty"`
	DeliveredQuantity  *decimal.Decimal `json:"delivered_quantity,omitempty"`
	ContractedQuantity *decimal.Decimal `json:"contracted_quantity,omitempty"`
	PaidQuantity       *decimal.Decimal `json:"paid_quantity,omitempty"`
	ClosingStock       *decimal.Decimal `json:"closing_stock,omitempty"`
	Notes              *string          `json:"notes,omitempty"`
	Deliveries         []DeliveryInput  `json:"deliveries,omitempty" validate:"dive"`
}

// UpdateRegistryInput rewrites a registry. Existing deliveries are always
// replaced by Deliveries.
type UpdateRegistryInput struct {
	InputID            *int64           `json:"input_id,omitempty" validate:"omitempty,gt=0"`
	ReferenceMonth     *shared.Month    `json:"reference_month,omitempty"`
	OpeningStock       *decimal.Decimal `json:"opening_stock,omitempty"`
	DeliveredQuantity  *decimal.Decimal `json:"delivered_quantity,omitempty"`
	ContractedQuantity *decimal.Decimal `json:"contracted_quantity,omitempty"`
	PaidQuantity       *decimal.Decimal `json:"paid_quantity,omitempty"`
	ClosingStock       *decimal.Decimal `json:"closing_stock,omitempty"`
	Notes              *string          `json:"notes,omitempty"`
	Deliveries         []DeliveryInput  `json:"deliveries,omitempty" validate:"dive"`
}

// ScheduleInput creates a future schedule.
type ScheduleInput struct {
	ReferenceMonth   shared.Month     `json:"reference_month"`
	InputID          int64            `json:"input_id" validate:"required,gt=0"`
	ContractID       *int64           `json:"contract_id,omitempty" validate:"omitempty,gt=0"`
	PlannedQuantity  decimal.Decimal  `json:"planned_quantity"`
	PlannedUnitValue *decimal.Decimal `json:"planned_unit_value,omitempty"`
	Status           *string          `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled"`
	Notes            *string          `json:"notes,omitempty"`
}

// UpdateScheduleInput changes a future schedule.
type UpdateScheduleInput struct {
	ReferenceMonth   *shared.Month    `json:"reference_month,omitempty"`
	InputID          *int64           `json:"input_id,omitempty" validate:"omitempty,gt=0"`
	ContractID       *int64           `json:"contract_id,omitempty" validate:"omitempty,gt=0"`
	PlannedQuantity  *decimal.Decimal `json:"planned_quantity,omitempty"`
	PlannedUnitValue *decimal.Decimal `json:"planned_unit_value,omitempty"`
	Status           *string          `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled"`
	Notes            *string          `json:"notes,omitempty"`
}

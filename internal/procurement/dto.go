package procurement

import (
	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// ContractItemInput describes one contract line.
type ContractItemInput struct {
	InputID              int64            `json:"input_id" validate:"required,gt=0"`
	Quantity             decimal.Decimal  `json:"quantity"`
	UnitValue            decimal.Decimal  `json:"unit_value"`
	TotalValue           *decimal.Decimal `json:"total_value,omitempty"`
	ExpectedDeliveryDate *shared.Date     `json:"expected_delivery_date,omitempty"`
	Notes                *string          `json:"notes,omitempty"`
}

// CreateContractInput registers a contract.
type CreateContractInput struct {
	Number     string              `json:"number" validate:"required,max=50"`
	SupplierID int64               `json:"supplier_id" validate:"required,gt=0"`
	StartDate  shared.Date         `json:"start_date"`
	EndDate    shared.Date         `json:"end_date"`
	TotalValue *decimal.Decimal    `json:"total_value,omitempty"`
	Status     *string             `json:"status,omitempty" validate:"omitempty,oneof=active closed cancelled"`
	Notes      *string             `json:"notes,omitempty"`
	Items      []ContractItemInput `json:"items" validate:"dive"`
}

// UpdateContractInput changes a contract. Items, when present, replace the current ones.
type UpdateContractInput struct {
	Number     *string              `json:"number,omitempty" validate:"omitempty,min=1,max=50"`
	SupplierID *int64               `json:"supplier_id,omitempty" validate:"omitempty,gt=0"`
	StartDate  *shared.Date         `json:"start_date,omitempty"`
	EndDate    *shared.Date         `json:"end_date,omitempty"`
	TotalValue *decimal.Decimal     `json:"total_value,omitempty"`
	Status     *string              `json:"status,omitempty" validate:"omitempty,oneof=active closed cancelled"`
	Notes      *string              `json:"notes,omitempty"`
	Items      *[]ContractItemInput `json:"items,omitempty" validate:"omitempty,dive"`
}

// QuotationInput creates a quotation.
type QuotationInput struct {
	QuotedOn   shared.Date      `json:"quoted_on"`
	SupplierID int64            `json:"supplier_id" validate:"required,gt=0"`
	InputID    int64            `json:"input_id" validate:"required,gt=0"`
	ContractID *int64           `json:"contract_id,omitempty" validate:"omitempty,gt=0"`
	UnitPrice  decimal.Decimal  `json:"unit_price"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	LeadDays   *int             `json:"lead_days,omitempty" validate:"omitempty,gte=0"`
	ValidUntil *shared.Date     `json:"valid_until,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

// UpdateQuotationInput changes quotation fields.
type UpdateQuotationInput struct {
	QuotedOn   *shared.Date     `json:"quoted_on,omitempty"`
	SupplierID *int64           `json:"supplier_id,omitempty" validate:"omitempty,gt=0"`
	InputID    *int64           `json:"input_id,omitempty" validate:"omitempty,gt=0"`
	ContractID *int64           `json:"contract_id,omitempty" validate:"omitempty,gt=0"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	LeadDays   *int             `json:"lead_days,omitempty" validate:"omitempty,gte=0"`
	ValidUntil *shared.Date     `json:"valid_until,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

// PlanInput creates a purchase plan.
type PlanInput struct {
	ReferenceMonth    shared.Month     `json:"reference_month"`
	InputID           int64            `json:"input_id" validate:"required,gt=0"`
	PlannedQuantity   decimal.Decimal  `json:"planned_quantity"`
	PlannedUnitValue  *decimal.Decimal `json:"planned_unit_value,omitempty"`
	PlannedTotalValue *decimal.Decimal `json:"planned_total_value,omitempty"`
	Status            *string          `json:"status,omitempty" validate:"omitempty,oneof=pending approved cancelled"`
	Notes             *string          `json:"notes,omitempty"`
}

// UpdatePlanInput changes purchase plan fields.
type UpdatePlanInput struct {
	ReferenceMonth    *shared.Month    `json:"reference_month,omitempty"`
	InputID           *int64           `json:"input_id,omitempty" validate:"omitempty,gt=0"`
	PlannedQuantity   *decimal.Decimal `json:"planned_quantity,omitempty"`
	PlannedUnitValue  *decimal.Decimal `json:"planned_unit_value,omitempty"`
	PlannedTotalValue *decimal.Decimal `json:"planned_total_value,omitempty"`
	Status            *string          `json:"status,omitempty" validate:"omitempty,oneof=pending approved cancelled"`
	Notes             *string          `json:"notes,omitempty"`
}

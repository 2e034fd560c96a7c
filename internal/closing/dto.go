package closing

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// DetailInput is one caller-supplied closing line.
type DetailInput struct {
	InputID     int64            `json:"input_id" validate:"required,gt=0"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	TotalValue  *decimal.Decimal `json:"total_value,omitempty"`
	AverageCost *decimal.Decimal `json:"average_cost,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// CreateClosingInput closes a reference month.
type CreateClosingInput struct {
	ReferenceMonth     shared.Month     `json:"reference_month"`
	ClosingDate        *shared.Date     `json:"closing_date,omitempty"`
	TotalPurchaseValue *decimal.Decimal `json:"total_purchase_value,omitempty"`
	TotalQuantity      *decimal.Decimal `json:"total_quantity,omitempty"`
	OverallAverageCost *decimal.Decimal `json:"overall_average_cost,omitempty"`
	Notes              *string          `json:"notes,omitempty"`
	Details            []DetailInput    `json:"details,omitempty" validate:"dive"`
}

// CalculateAverageCostInput upserts the average cost of an input for a
// month. Without totals they are aggregated from the month's deliveries.
type CalculateAverageCostInput struct {
	InputID         int64            `json:"input_id" validate:"required,gt=0"`
	ReferenceMonth  shared.Month     `json:"reference_month"`
	TotalQuantity   *decimal.Decimal `json:"total_quantity,omitempty"`
	TotalCost       *decimal.Decimal `json:"total_cost,omitempty"`
	UnitAverageCost *decimal.Decimal `json:"unit_average_cost,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

// AnalysisInput creates a comparative analysis.
type AnalysisInput struct {
	Title      string          `json:"title" validate:"required,max=200"`
	Kind       string          `json:"kind" validate:"required,max=50"`
	StartDate  shared.Date     `json:"start_date"`
	EndDate    shared.Date     `json:"end_date"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Results    json.RawMessage `json:"results,omitempty"`
	Notes      *string         `json:"notes,omitempty"`
}

// UpdateAnalysisInput changes a comparative analysis.
type UpdateAnalysisInput struct {
	Title      *string          `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Kind       *string          `json:"kind,omitempty" validate:"omitempty,min=1,max=50"`
	StartDate  *shared.Date     `json:"start_date,omitempty"`
	EndDate    *shared.Date     `json:"end_date,omitempty"`
	Parameters *json.RawMessage `json:"parameters,omitempty"`
	Results    *json.RawMessage `json:"results,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

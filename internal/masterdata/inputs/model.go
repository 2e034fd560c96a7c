package inputs

import (
	"time"

	"github.com/shopspring/decimal"
)

// Input is a purchasable item tracked in stock. CurrentStock is written only
// by the invoice and delivery ledgers after creation.
type Input struct {
	ID           int64           `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Unit         string          `json:"unit"`
	Category     string          `json:"category"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	Status       string          `json:"status"`
	Notes        string          `json:"notes"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BelowMinimum reports whether current stock has dropped under the threshold.
func (i Input) BelowMinimum() bool {
	return i.CurrentStock.LessThan(i.MinimumStock)
}

// ListFilters narrows List results.
type ListFilters struct {
	Name   *string
	Code   *string
	Status *string
	Limit  int
	Offset int
}

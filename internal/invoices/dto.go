package invoices

import (
	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// ItemInput describes one line on create or update.
type ItemInput struct {
	InputID    int64            `json:"input_id" validate:"required,gt=0"`
	Quantity   decimal.Decimal  `json:"quantity"`
	UnitValue  decimal.Decimal  `json:"unit_value"`
	TotalValue *decimal.Decimal `json:"total_value,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

// CreateInvoiceInput registers an invoice and posts its items to stock.
type CreateInvoiceInput struct {
	Number     string           `json:"number" validate:"required,max=30"`
	Series     *string          `json:"series,omitempty" validate:"omitempty,max=10"`
	IssueDate  shared.Date      `json:"issue_date"`
	EntryDate  *shared.Date     `json:"entry_date,omitempty"`
	SupplierID int64            `json:"supplier_id" validate:"required,gt=0"`
	TotalValue *decimal.Decimal `json:"total_value,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
	Items      []ItemInput      `json:"items" validate:"required,min=1,dive"`
}

// UpdateInvoiceInput changes header fields and optionally replaces the items.
type UpdateInvoiceInput struct {
	Number     *string          `json:"number,omitempty" validate:"omitempty,min=1,max=30"`
	Series     *string          `json:"series,omitempty" validate:"omitempty,max=10"`
	IssueDate  *shared.Date     `json:"issue_date,omitempty"`
	EntryDate  *shared.Date     `json:"entry_date,omitempty"`
	SupplierID *int64           `json:"supplier_id,omitempty" validate:"omitempty,gt=0"`
	TotalValue *decimal.Decimal `json:"total_value,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
	Items      *[]ItemInput     `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

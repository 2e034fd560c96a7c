package invoices

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Invoice statuses. Cancelled invoices no longer contribute stock.
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// ErrNotFound is returned by repositories when the invoice does not exist.
var ErrNotFound = errors.New("invoice not found")

// Invoice is a supplier invoice (NF-e) with its line items.
type Invoice struct {
	ID         int64           `json:"id"`
	Number     string          `json:"number"`
	Series     string          `json:"series"`
	IssueDate  shared.Date     `json:"issue_date"`
	EntryDate  shared.Date     `json:"entry_date"`
	SupplierID int64           `json:"supplier_id"`
	TotalValue decimal.Decimal `json:"total_value"`
	Status     string          `json:"status"`
	Notes      string          `json:"notes"`
	Items      []Item          `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Item is one invoice line. Quantity is added to the input's current stock.
type Item struct {
	ID         int64           `json:"id"`
	InvoiceID  int64           `json:"invoice_id"`
	InputID    int64           `json:"input_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitValue  decimal.Decimal `json:"unit_value"`
	TotalValue decimal.Decimal `json:"total_value"`
	Notes      string          `json:"notes"`
}

// ListFilters narrows invoice listings.
type ListFilters struct {
	Number     *string
	SupplierID *int64
	From       *shared.Date
	To         *shared.Date
	Status     *string
	Limit      int
	Offset     int
}

// SupplierTotal aggregates active invoices of one supplier in a period.
type SupplierTotal struct {
	SupplierID   int64           `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	InvoiceCount int             `json:"invoice_count"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

// PeriodReport summarises invoices issued between From and To.
type PeriodReport struct {
	From         shared.Date     `json:"from"`
	To           shared.Date     `json:"to"`
	InvoiceCount int             `json:"invoice_count"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Suppliers    []SupplierTotal `json:"suppliers"`
}

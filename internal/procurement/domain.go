package procurement

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Contract lifecycle statuses.
const (
	ContractActive    = "active"
	ContractClosed    = "closed"
	ContractCancelled = "cancelled"
)

// Purchase plan statuses.
const (
	PlanPending   = "pending"
	PlanApproved  = "approved"
	PlanCancelled = "cancelled"
)

// ErrNotFound signals a missing procurement record.
var ErrNotFound = errors.New("procurement: not found")

// Contract is a supply agreement with a supplier.
type Contract struct {
	ID         int64           `json:"id"`
	Number     string          `json:"number"`
	SupplierID int64           `json:"supplier_id"`
	StartDate  shared.Date     `json:"start_date"`
	EndDate    shared.Date     `json:"end_date"`
	TotalValue decimal.Decimal `json:"total_value"`
	Status     string          `json:"status"`
	Notes      string          `json:"notes"`
	Items      []ContractItem  `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ContractItem is one contracted input line.
type ContractItem struct {
	ID                   int64           `json:"id"`
	ContractID           int64           `json:"contract_id"`
	InputID              int64           `json:"input_id"`
	Quantity             decimal.Decimal `json:"quantity"`
	UnitValue            decimal.Decimal `json:"unit_value"`
	TotalValue           decimal.Decimal `json:"total_value"`
	ExpectedDeliveryDate *shared.Date    `json:"expected_delivery_date"`
	Notes                string          `json:"notes"`
}

// ContractFilters narrows contract listings.
type ContractFilters struct {
	Number     *string
	SupplierID *int64
	Status     *string
	From       *shared.Date
	To         *shared.Date
	Limit      int
	Offset     int
}

// ScheduleEntry is a contract item expected within a delivery window.
type ScheduleEntry struct {
	ContractID           int64           `json:"contract_id"`
	ContractNumber       string          `json:"contract_number"`
	SupplierID           int64           `json:"supplier_id"`
	ItemID               int64           `json:"item_id"`
	InputID              int64           `json:"input_id"`
	InputName            string          `json:"input_name"`
	Quantity             decimal.Decimal `json:"quantity"`
	ExpectedDeliveryDate shared.Date     `json:"expected_delivery_date"`
}

// Quotation is a price quote for an input.
type Quotation struct {
	ID         int64            `json:"id"`
	QuotedOn   shared.Date      `json:"quoted_on"`
	SupplierID int64            `json:"supplier_id"`
	InputID    int64            `json:"input_id"`
	ContractID *int64           `json:"contract_id"`
	UnitPrice  decimal.Decimal  `json:"unit_price"`
	Quantity   *decimal.Decimal `json:"quantity"`
	LeadDays   *int             `json:"lead_days"`
	ValidUntil *shared.Date     `json:"valid_until"`
	Notes      string           `json:"notes"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// QuotationFilters narrows quotation listings.
type QuotationFilters struct {
	InputID    *int64
	SupplierID *int64
	From       *shared.Date
	To         *shared.Date
	Limit      int
	Offset     int
}

// PricePoint is one quotation on the price evolution of an input.
type PricePoint struct {
	QuotationID  int64           `json:"quotation_id"`
	QuotedOn     shared.Date     `json:"quoted_on"`
	SupplierID   int64           `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// PriceEvolution lists the quotations of one input in date order.
type PriceEvolution struct {
	InputID int64           `json:"input_id"`
	Points  []PricePoint    `json:"points"`
	Minimum decimal.Decimal `json:"minimum"`
	Maximum decimal.Decimal `json:"maximum"`
	Average decimal.Decimal `json:"average"`
}

// PurchasePlan is a planned purchase for a reference month.
type PurchasePlan struct {
	ID                int64            `json:"id"`
	ReferenceMonth    shared.Month     `json:"reference_month"`
	InputID           int64            `json:"input_id"`
	PlannedQuantity   decimal.Decimal  `json:"planned_quantity"`
	PlannedUnitValue  *decimal.Decimal `json:"planned_unit_value"`
	PlannedTotalValue *decimal.Decimal `json:"planned_total_value"`
	Status            string           `json:"status"`
	Notes             string           `json:"notes"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// PlanFilters narrows purchase plan listings.
type PlanFilters struct {
	InputID *int64
	Status  *string
	Month   *shared.Month
	Limit   int
	Offset  int
}

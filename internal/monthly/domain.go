package monthly

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Registry statuses. A closed registry rejects every delivery mutation.
const (
	RegistryOpen   = "open"
	RegistryClosed = "closed"
)

// Delivery payment statuses. Only PaymentPaid counts towards paid quantity.
const (
	PaymentPending   = "pending"
	PaymentPartial   = "partial"
	PaymentPaid      = "paid"
	PaymentCancelled = "cancelled"
)

// Future schedule statuses.
const (
	SchedulePending   = "pending"
	ScheduleConfirmed = "confirmed"
	ScheduleCancelled = "cancelled"
)

// Propagation selects how a posting reaches the input's current stock.
type Propagation int

const (
	// PropagateOverwrite sets input stock to the registry closing stock.
	PropagateOverwrite Propagation = iota
	// PropagateDeferred leaves input stock to the caller.
	PropagateDeferred
)

// ErrNotFound signals a missing monthly record.
var ErrNotFound = errors.New("monthly: not found")

// Registry is the stock reconciliation of one input for one reference month.
type Registry struct {
	ID                 int64           `json:"id"`
	InputID            int64           `json:"input_id"`
	ReferenceMonth     shared.Month    `json:"reference_month"`
	OpeningStock       decimal.Decimal `json:"opening_stock"`
	DeliveredQuantity  decimal.Decimal `json:"delivered_quantity"`
	ContractedQuantity decimal.Decimal `json:"contracted_quantity"`
	PaidQuantity       decimal.Decimal `json:"paid_quantity"`
	ClosingStock       decimal.Decimal `json:"closing_stock"`
	Status             string          `json:"status"`
	Notes              string          `json:"notes"`
	Deliveries         []Delivery      `json:"deliveries,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Closed reports whether the registry is frozen.
func (r Registry) Closed() bool {
	return r.Status == RegistryClosed
}

// Delivery is one receipt of an input against a registry.
type Delivery struct {
	ID            int64           `json:"id"`
	RegistryID    int64           `json:"registry_id"`
	InvoiceID     *int64          `json:"invoice_id"`
	ContractID    *int64          `json:"contract_id"`
	DeliveryDate  shared.Date     `json:"delivery_date"`
	Quantity      decimal.Decimal `json:"quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	PaymentStatus string          `json:"payment_status"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Paid reports whether the delivery counts towards paid quantity.
func (d Delivery) Paid() bool {
	return d.PaymentStatus == PaymentPaid
}

// RegistryFilters narrows registry listings.
type RegistryFilters struct {
	InputID *int64
	Status  *string
	Month   *shared.Month
	Limit   int
	Offset  int
}

// StockPoint is one month on the stock evolution of an input.
type StockPoint struct {
	ReferenceMonth    shared.Month    `json:"reference_month"`
	OpeningStock      decimal.Decimal `json:"opening_stock"`
	DeliveredQuantity decimal.Decimal `json:"delivered_quantity"`
	ClosingStock      decimal.Decimal `json:"closing_stock"`
	Status            string          `json:"status"`
}

// StockEvolution lists the registries of an input for one year.
type StockEvolution struct {
	InputID int64        `json:"input_id"`
	Year    int          `json:"year"`
	Points  []StockPoint `json:"points"`
}

// FutureSchedule is a planned delivery for an upcoming month.
type FutureSchedule struct {
	ID               int64            `json:"id"`
	ReferenceMonth   shared.Month     `json:"reference_month"`
	InputID          int64            `json:"input_id"`
	ContractID       *int64           `json:"contract_id"`
	PlannedQuantity  decimal.Decimal  `json:"planned_quantity"`
	PlannedUnitValue *decimal.Decimal `json:"planned_unit_value"`
	Status           string           `json:"status"`
	Notes            string           `json:"notes"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ScheduleFilters narrows future schedule listings.
type ScheduleFilters struct {
	InputID    *int64
	ContractID *int64
	Status     *string
	Month      *shared.Month
	Limit      int
	Offset     int
}

// StockDrift compares an input's current stock with the closing stock of its
// latest registry.
type StockDrift struct {
	InputID        int64           `json:"input_id"`
	ReferenceMonth shared.Month    `json:"reference_month"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	ClosingStock   decimal.Decimal `json:"closing_stock"`
	Difference     decimal.Decimal `json:"difference"`
}

package closing

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// Month-end closing statuses.
const (
	StatusClosed   = "closed"
	StatusReopened = "reopened"
)

// Price trend directions.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// ErrNotFound signals a missing closing record.
var ErrNotFound = errors.New("closing: not found")

// MonthClosing freezes a reference month. Totals and details are supplied by
// the caller and stored as given.
type MonthClosing struct {
	ID                 int64           `json:"id"`
	ReferenceMonth     shared.Month    `json:"reference_month"`
	ClosingDate        shared.Date     `json:"closing_date"`
	TotalPurchaseValue decimal.Decimal `json:"total_purchase_value"`
	TotalQuantity      decimal.Decimal `json:"total_quantity"`
	OverallAverageCost decimal.Decimal `json:"overall_average_cost"`
	Status             string          `json:"status"`
	Notes              string          `json:"notes"`
	Details            []Detail        `json:"details"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Detail is the per-input line of a closing.
type Detail struct {
	ID          int64           `json:"id"`
	ClosingID   int64           `json:"closing_id"`
	InputID     int64           `json:"input_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	TotalValue  decimal.Decimal `json:"total_value"`
	AverageCost decimal.Decimal `json:"average_cost"`
	Notes       string          `json:"notes"`
}

// ClosingFilters narrows closing listings.
type ClosingFilters struct {
	Status *string
	Month  *shared.Month
	Year   *int
	Limit  int
	Offset int
}

// AverageCost is the unit cost of an input over one month.
type AverageCost struct {
	ID              int64           `json:"id"`
	InputID         int64           `json:"input_id"`
	ReferenceMonth  shared.Month    `json:"reference_month"`
	TotalQuantity   decimal.Decimal `json:"total_quantity"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	UnitAverageCost decimal.Decimal `json:"unit_average_cost"`
	Notes           string          `json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// AverageCostFilters narrows average cost listings.
type AverageCostFilters struct {
	InputID *int64
	Month   *shared.Month
	Limit   int
	Offset  int
}

// MonthTotals aggregates the deliveries of one input in one month.
type MonthTotals struct {
	InputID  int64
	Quantity decimal.Decimal
	Value    decimal.Decimal
}

// InputRef identifies the input a report is about.
type InputRef struct {
	ID            int64  `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	UnitOfMeasure string `json:"unit_of_measure"`
}

// AverageCostReport lists the monthly average costs of an input for a year.
type AverageCostReport struct {
	Input         InputRef        `json:"input"`
	Year          int             `json:"year"`
	Months        []AverageCost   `json:"months"`
	AnnualAverage decimal.Decimal `json:"annual_average"`
}

// PriceEntry is one delivery on a price trend.
type PriceEntry struct {
	DeliveryDate shared.Date     `json:"delivery_date"`
	Quantity     decimal.Decimal `json:"quantity"`
	TotalValue   decimal.Decimal `json:"total_value"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// PriceTrend compares the first and last unit price of an input in a range.
type PriceTrend struct {
	Input     InputRef        `json:"input"`
	From      shared.Date     `json:"from"`
	To        shared.Date     `json:"to"`
	Entries   []PriceEntry    `json:"entries"`
	Variation decimal.Decimal `json:"variation_percent"`
	Trend     string          `json:"trend"`
}

// Analysis is a stored comparative analysis.
type Analysis struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Kind       string          `json:"kind"`
	StartDate  shared.Date     `json:"start_date"`
	EndDate    shared.Date     `json:"end_date"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Results    json.RawMessage `json:"results,omitempty"`
	Notes      string          `json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AnalysisFilters narrows analysis listings.
type AnalysisFilters struct {
	Kind   *string
	From   *shared.Date
	To     *shared.Date
	Limit  int
	Offset int
}

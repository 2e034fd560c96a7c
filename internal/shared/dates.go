package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Date is a calendar date encoded as YYYY-MM-DD in JSON.
type Date struct {
	time.Time
}

// NewDate truncates t to midnight UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or RFC3339 input.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return NewDate(t), nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// Month is a reference month, always normalised to the first day, encoded as YYYY-MM.
type Month struct {
	time.Time
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

// ParseMonth accepts YYYY-MM, YYYY-MM-DD or RFC3339 input.
func ParseMonth(raw string) (Month, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(monthLayout, raw); err == nil {
		return MonthOf(t), nil
	}
	d, err := ParseDate(raw)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: expected YYYY-MM", raw)
	}
	return MonthOf(d.Time), nil
}

// Next returns the following month.
func (m Month) Next() Month {
	return Month{m.AddDate(0, 1, 0)}
}

// Previous returns the preceding month.
func (m Month) Previous() Month {
	return Month{m.AddDate(0, -1, 0)}
}

// End returns the last day of the month.
func (m Month) End() time.Time {
	return m.AddDate(0, 1, -1)
}

// MarshalJSON implements json.Marshaler.
func (m Month) MarshalJSON() ([]byte, error) {
	if m.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(m.Format(monthLayout))
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Month) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = Month{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseMonth(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Month) String() string {
	return m.Format(monthLayout)
}

// DateOrNil converts an optional date into a pgx argument.
func DateOrNil(d *Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.Time
}

// DateFromPtr wraps a nullable scanned timestamp.
func DateFromPtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := NewDate(*t)
	return &d
}

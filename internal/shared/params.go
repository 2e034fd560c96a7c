package shared

import (
	"net/http"
	"strings"
	"time"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
)

// QueryDate parses an optional YYYY-MM-DD query parameter.
func QueryDate(r *http.Request, key string) (*Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	d, err := ParseDate(raw)
	if err != nil {
		return nil, Validationf("%s: %v", key, err)
	}
	return &d, nil
}

// QueryMonth parses an optional YYYY-MM query parameter.
func QueryMonth(r *http.Request, key string) (*Month, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	m, err := ParseMonth(raw)
	if err != nil {
		return nil, Validationf("%s: %v", key, err)
	}
	return &m, nil
}

// QueryYear parses an optional year parameter, defaulting to the year of now.
func QueryYear(r *http.Request, key string, now time.Time) (int, error) {
	year, err := httpx.QueryInt(r, key, now.Year())
	if err != nil {
		return 0, err
	}
	if year < 1900 || year > 9999 {
		return 0, Validationf("%s: year %d out of range", key, year)
	}
	return year, nil
}

// QueryPage reads limit and offset parameters.
func QueryPage(r *http.Request) (Page, error) {
	limit, err := httpx.QueryInt(r, "limit", 0)
	if err != nil {
		return Page{}, err
	}
	offset, err := httpx.QueryInt(r, "offset", 0)
	if err != nil {
		return Page{}, err
	}
	return NewPage(limit, offset), nil
}

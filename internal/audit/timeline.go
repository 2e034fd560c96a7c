package audit

import (
	"encoding/json"
	"time"
)

// TimelineFilters narrows audit and access log queries. From and To are
// inclusive calendar days.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  *int64
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// TimelineRow is one audit_logs entry joined with the actor's name.
type TimelineRow struct {
	At        time.Time       `json:"at"`
	ActorID   *int64          `json:"actor_id"`
	ActorName string          `json:"actor_name"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entity_id"`
	Meta      json.RawMessage `json:"meta,omitempty"`
}

// AccessRow is one access_logs entry.
type AccessRow struct {
	At       time.Time `json:"at"`
	UserID   *int64    `json:"user_id"`
	UserName string    `json:"user_name"`
	IP       string    `json:"ip"`
	Action   string    `json:"action"`
	Details  string    `json:"details"`
}

// PagingInfo holds simple pagination metadata.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result wraps a page of rows.
type Result[T any] struct {
	Rows   []T        `json:"rows"`
	Paging PagingInfo `json:"paging"`
}

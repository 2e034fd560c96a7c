package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	rows   []TimelineRow
	limits []int
}

func (m *memoryRepo) AuditTimeline(_ context.Context, _ TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	m.limits = append(m.limits, limit)
	if offset >= len(m.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.rows) {
		end = len(m.rows)
	}
	return m.rows[offset:end], nil
}

func (m *memoryRepo) AccessLog(context.Context, TimelineFilters, int, int) ([]AccessRow, error) {
	return nil, nil
}

func seedRows(n int) []TimelineRow {
	rows := make([]TimelineRow, n)
	for i := range rows {
		rows[i] = TimelineRow{At: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(i) * time.Hour), Action: "registry.create", Entity: "registry", EntityID: "1"}
	}
	return rows
}

func TestTimelinePaging(t *testing.T) {
	repo := &memoryRepo{rows: seedRows(5)}
	svc := NewService(repo)

	res, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	require.True(t, res.Paging.HasNext)
	require.Equal(t, 2, res.Paging.NextPage)
	require.Zero(t, res.Paging.PrevPage)

	res, err = svc.Timeline(context.Background(), TimelineFilters{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.False(t, res.Paging.HasNext)
	require.Equal(t, 2, res.Paging.PrevPage)

	_, err = svc.Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	require.Equal(t, maxPageSize+1, repo.limits[len(repo.limits)-1])
}

func TestAccessLogNeverReturnsNilRows(t *testing.T) {
	res, err := NewService(&memoryRepo{}).AccessLog(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	require.NotNil(t, res.Rows)
	body, err := json.Marshal(res)
	require.NoError(t, err)
	require.Contains(t, string(body), `"rows":[]`)
}

func TestWriteCSV(t *testing.T) {
	actor := int64(7)
	rows := []TimelineRow{{
		At:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ActorID:   &actor,
		ActorName: "Ana, Nutritionist",
		Action:    "closing.create",
		Entity:    "month_closing",
		EntityID:  "3",
		Meta:      json.RawMessage(`{"month":"2026-02"}`),
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, []string{"2026-03-01T12:00:00Z", "7", "Ana, Nutritionist", "closing.create", "month_closing", "3", `{"month":"2026-02"}`}, records[1])
}

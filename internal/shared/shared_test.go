package shared

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseMonthNormalises(t *testing.T) {
	m, err := ParseMonth("2024-03")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), m.Time)

	m, err = ParseMonth("2024-03-17")
	require.NoError(t, err)
	require.Equal(t, "2024-03", m.String())
	require.Equal(t, 31, m.End().Day())
	require.Equal(t, "2024-02", m.Previous().String())

	_, err = ParseMonth("March")
	require.Error(t, err)
}

func TestDateAndMonthJSON(t *testing.T) {
	var payload struct {
		Day   Date  `json:"day"`
		Month Month `json:"month"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2024-03-15","month":"2024-03-15"}`), &payload))
	require.Equal(t, "2024-03-15", payload.Day.String())
	require.Equal(t, "2024-03", payload.Month.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	require.JSONEq(t, `{"day":"2024-03-15","month":"2024-03"}`, string(out))
}

func TestFoldSearch(t *testing.T) {
	require.Equal(t, "feijao carioca", FoldSearch("  Feijão Carioca "))
	require.Equal(t, "acucar", FoldSearch("AÇÚCAR"))
	require.Equal(t, "12345678000190", DigitsOnly("12.345.678/0001-90"))
}

func TestSessionRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sm := NewSessionManager(client, "nutri_session", time.Hour, false)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Zero(t, sess.UserID())

	sess.SetUser(42)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, sess))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Equal(t, int64(42), loaded.UserID())
	require.Equal(t, "42", loaded.User())

	sm.Destroy(loaded)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), loaded))
	require.False(t, mr.Exists("session:"+loaded.ID))
}

func TestSessionUnknownCookieStartsFresh(t *testing.T) {
	mr := miniredis.RunT(t)
	sm := NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "nutri_session", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "nutri_session", Value: "attacker-chosen"})
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.NotEqual(t, "attacker-chosen", sess.ID)
}

func TestCSRFTokenLifecycle(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := newSession()
	token, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.NoError(t, m.VerifyToken(context.Background(), sess, token))
	require.ErrorIs(t, m.VerifyToken(context.Background(), sess, "nope"), ErrCSRFTokenMismatch)
	require.ErrorIs(t, m.VerifyToken(context.Background(), sess, ""), ErrCSRFTokenMissing)
}

func TestActorFromContext(t *testing.T) {
	sess := newSession()
	sess.SetUser(7)
	ctx := ContextWithSession(context.Background(), sess)
	require.Equal(t, int64(7), ActorFromContext(ctx))
	require.Equal(t, int64(9), ActorFromContext(ContextWithActor(ctx, 9)))
	require.Zero(t, ActorFromContext(context.Background()))
}

func TestClosingLockKey(t *testing.T) {
	require.Equal(t, "closing:month:2024-03", ClosingLockKey(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNewPageClamps(t *testing.T) {
	require.Equal(t, Page{Limit: 50, Offset: 0}, NewPage(0, -3))
	require.Equal(t, 500, NewPage(10000, 0).Limit)
}

func TestNewListSignalsNextPage(t *testing.T) {
	page := NewPage(2, 4)

	full := NewList([]int{1, 2}, page)
	require.NotNil(t, full.NextOffset)
	require.Equal(t, 6, *full.NextOffset)

	partial := NewList([]int{1}, page)
	require.Nil(t, partial.NextOffset)

	empty := NewList[int](nil, page)
	require.NotNil(t, empty.Items)
	require.Nil(t, empty.NextOffset)
}

func TestLineTotal(t *testing.T) {
	qty := decimal.RequireFromString("3")
	unit := decimal.RequireFromString("2.335")

	total, ok := LineTotal(qty, unit, nil)
	require.True(t, ok)
	require.True(t, total.Equal(decimal.RequireFromString("7.005")))

	stated := decimal.RequireFromString("7.01")
	total, ok = LineTotal(qty, unit, &stated)
	require.True(t, ok)
	require.True(t, total.Equal(stated))

	off := decimal.RequireFromString("7.02")
	_, ok = LineTotal(qty, unit, &off)
	require.False(t, ok)
}

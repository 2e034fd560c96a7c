package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nutri-erp/nutri-erp/internal/platform/httpx"
)

func TestFilterBuildsPositionalArgs(t *testing.T) {
	var f Filter
	require.Empty(t, f.Where())
	f.Add("name ILIKE ?", "%rice%")
	f.Add("status = ?", "active")
	f.Add("(a = ? OR b = ?)", 1, 2)
	require.Equal(t, " WHERE name ILIKE $1 AND status = $2 AND (a = $3 OR b = $4)", f.Where())
	require.Equal(t, " LIMIT $5 OFFSET $6", f.Paginate(10, 0))
	require.Len(t, f.Args(), 6)
}

func TestErrorHelpersWrapSentinels(t *testing.T) {
	require.True(t, errors.Is(Validationf("bad %s", "x"), httpx.ErrValidation))
	require.True(t, errors.Is(Duplicatef("code %s", "x"), httpx.ErrDuplicate))
	require.True(t, errors.Is(NotFoundf("input %d", 1), httpx.ErrNotFound))
	require.True(t, errors.Is(Lockedf("registry %d", 1), httpx.ErrLocked))
}

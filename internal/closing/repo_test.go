package closing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/nutri-erp/nutri-erp/internal/shared"
)

// recordingTx captures Exec calls; other pgx.Tx methods are not used here.
type recordingTx struct {
	pgx.Tx
	sql  string
	args []any
}

func (t *recordingTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.sql, t.args = sql, args
	return pgconn.NewCommandTag("UPDATE 3"), nil
}

func TestSetMonthRegistriesStatusMatchesDateColumn(t *testing.T) {
	tx := &recordingTx{}
	repo := &txRepository{tx: tx}
	month := shared.MonthOf(time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC))

	n, err := repo.SetMonthRegistriesStatus(context.Background(), month, "closed")
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	require.Contains(t, tx.sql, "reference_month = $1::date")
	require.False(t, strings.Contains(tx.sql, "date_trunc"), tx.sql)
	require.Len(t, tx.args, 2)
	first, ok := tx.args[0].(time.Time)
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first)
	require.Equal(t, "closed", tx.args[1])
}

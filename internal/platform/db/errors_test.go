package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	require.True(t, IsUniqueViolation(err))
	require.False(t, IsForeignKeyViolation(err))
	require.False(t, IsUniqueViolation(errors.New("boom")))
	require.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
}

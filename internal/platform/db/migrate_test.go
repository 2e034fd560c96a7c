package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationsAreOrderedAndNonEmpty(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	for i := 1; i < len(migrations); i++ {
		require.Less(t, migrations[i-1].Version, migrations[i].Version)
	}
	for _, m := range migrations {
		require.NotEmpty(t, strings.TrimSpace(m.SQL), m.Version)
	}
}

func TestSchemaDeclaresLedgerUniqueness(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	var all strings.Builder
	for _, m := range migrations {
		all.WriteString(m.SQL)
	}
	schema := all.String()
	require.Contains(t, schema, "UNIQUE (input_id, reference_month)")
	require.Contains(t, schema, "reference_month DATE NOT NULL UNIQUE")
	require.Contains(t, schema, "ON DELETE CASCADE")
}

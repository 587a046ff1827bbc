package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"race_access/internal/config"
	"race_access/internal/domain"
)

func TestOpenAndMigrate_SQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "races.db")}

	conn, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))

	m := conn.Migrator()
	for _, model := range Models() {
		assert.True(t, m.HasTable(model))
	}
	assert.True(t, m.HasIndex(&domain.LedgerEntry{}, "idx_ledger_user_created"))
	assert.True(t, m.HasIndex(&domain.LedgerEntry{}, "idx_ledger_type_created"))

	// Re-running is a no-op
	require.NoError(t, Migrate(conn))
}

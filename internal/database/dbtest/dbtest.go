// Package dbtest gives tests a migrated in-memory database.
package dbtest

import (
	"testing"

	"cashdesk-backend/internal/config"
	"cashdesk-backend/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New opens a fresh in-memory SQLite database with every table migrated. The
// pool holds a single connection, so the database lives as long as the test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(&config.Config{
		DatabaseDriver: config.DriverSQLite,
		DatabaseDSN:    ":memory:",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

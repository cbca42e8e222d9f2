// Package dbtest provides an in-memory database for package tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/conduit-api/internal/database"
)

// New opens a fresh in-memory SQLite database with the schema applied.
// The database is closed when the test ends.
func New(t testing.TB) *bun.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.CreateSchema(ctx, db))
	return db
}

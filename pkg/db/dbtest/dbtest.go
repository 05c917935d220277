// Package dbtest provides database helpers for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/japaniel/lector/pkg/db"
)

// OpenMemory returns a migrated in-memory database that is closed with the test.
func OpenMemory(t testing.TB) *sqlx.DB {
	t.Helper()
	conn, err := db.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

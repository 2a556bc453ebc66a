// Package dbtest provides migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/umakantv/go-utils/logger"

	"fastmemo/database"
)

var initLogger sync.Once

// InitLogger sets up the process logger once for packages whose tests
// exercise logging code paths.
func InitLogger() {
	initLogger.Do(func() {
		logger.Init(logger.LoggerConfig{
			CallerKey:  "file",
			TimeKey:    "timestamp",
			CallerSkip: 1,
		})
	})
}

// New returns a private, fully migrated database closed at test cleanup.
func New(t testing.TB) *sqlx.DB {
	t.Helper()
	InitLogger()

	dbConn, err := database.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { dbConn.Close() })

	if err := database.Migrate(context.Background(), dbConn); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return dbConn
}

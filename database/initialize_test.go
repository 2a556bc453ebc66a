package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastmemo/database"
	"fastmemo/database/dbtest"
)

func TestMigrateIsIdempotent(t *testing.T) {
	dbConn := dbtest.New(t)
	ctx := context.Background()

	version, err := database.Version(ctx, dbConn)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	require.NoError(t, database.Migrate(ctx, dbConn))

	var tables []string
	require.NoError(t, dbConn.Select(&tables,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'goose%' AND name NOT LIKE 'sqlite%' ORDER BY name"))
	assert.Equal(t, []string{"note_images", "note_labels", "notes", "users"}, tables)
}

func TestMigrationsDir(t *testing.T) {
	dir, err := database.MigrationsDir("pgx")
	require.NoError(t, err)
	assert.Equal(t, "database/migrations/postgres", dir)

	_, err = database.MigrationsDir("mysql")
	require.Error(t, err)
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := database.Connect("mysql", "whatever")
	require.Error(t, err)
}

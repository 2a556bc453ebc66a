package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/umakantv/go-utils/db"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"

	"fastmemo/config"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// InitializeDatabase connects using the configured driver and applies all
// pending migrations. Failures are fatal, the service cannot run without
// its schema.
func InitializeDatabase(ctx context.Context, cfg *config.Config) *sqlx.DB {
	dbConn, err := Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("Error while connecting to database", zap.Error(err))
		os.Exit(1)
	}

	if err := Migrate(ctx, dbConn); err != nil {
		logger.Error("Error while running migration", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Database initialized successfully", zap.String("driver", cfg.DBDriver))
	return dbConn
}

// Connect opens a connection pool for driver ("sqlite3" or "pgx").
func Connect(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "sqlite3":
		dbConn := db.GetDBConnection(db.DatabaseConfig{
			DRIVER: driver,
			DB:     dsn,
		})
		if dbConn == nil {
			return nil, fmt.Errorf("open sqlite database %q", dsn)
		}
		// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY
		dbConn.SetMaxOpenConns(1)
		return dbConn, nil
	case "pgx":
		return Open(driver, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open connects without the shared bootstrap, used for pgx and tests.
func Open(driver, dsn string) (*sqlx.DB, error) {
	dbConn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := dbConn.Ping(); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		dbConn.SetMaxOpenConns(1)
	}
	return dbConn, nil
}

// Migrate applies the embedded migrations for the connection's dialect.
func Migrate(ctx context.Context, dbConn *sqlx.DB) error {
	provider, err := newProvider(dbConn)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("Applied migration",
			zap.Int64("version", r.Source.Version),
			zap.String("file", r.Source.Path),
			zap.Duration("took", r.Duration))
	}
	return nil
}

// Version returns the current schema version.
func Version(ctx context.Context, dbConn *sqlx.DB) (int64, error) {
	provider, err := newProvider(dbConn)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

func newProvider(dbConn *sqlx.DB) (*goose.Provider, error) {
	dialect, dir, err := dialectFor(dbConn.DriverName())
	if err != nil {
		return nil, err
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations dir %s: %w", dir, err)
	}

	provider, err := goose.NewProvider(dialect, dbConn.DB, fsys)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return provider, nil
}

func dialectFor(driver string) (goose.Dialect, string, error) {
	switch driver {
	case "sqlite3":
		return goose.DialectSQLite3, "migrations/sqlite", nil
	case "pgx", "postgres":
		return goose.DialectPostgres, "migrations/postgres", nil
	}
	return "", "", fmt.Errorf("no migrations for driver %q", driver)
}

// MigrationsDir is where create-migration writes new files for driver.
func MigrationsDir(driver string) (string, error) {
	_, dir, err := dialectFor(driver)
	if err != nil {
		return "", err
	}
	return "database/" + dir, nil
}

// CreateMigration writes the next numbered SQL migration skeleton.
func CreateMigration(driver, name string) (string, error) {
	dir, err := MigrationsDir(driver)
	if err != nil {
		return "", err
	}
	goose.SetSequential(true)
	if err := goose.Create(nil, dir, name, "sql"); err != nil {
		return "", fmt.Errorf("create migration %s: %w", name, err)
	}
	return dir, nil
}

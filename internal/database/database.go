package database

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"cglreviews/internal/config"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type DB struct {
	*sqlx.DB
	logger *slog.Logger
}

// ConnectDB opens the pool for the configured driver, applies the schema and checks the connection.
func ConnectDB(ctx context.Context, cfg config.DB, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", cfg.Driver, "host", cfg.Host, "name", cfg.Name)

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// an in-memory database lives only as long as its single connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	d := &DB{DB: db, logger: logger}

	if err := d.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := d.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database health check failed: %w", err)
	}

	logger.Info("connected to database", "driver", cfg.Driver)
	return d, nil
}

// OpenMemory opens a fresh in-memory sqlite database with the schema applied.
// Each name identifies a separate database.
func OpenMemory(ctx context.Context, name string, logger *slog.Logger) (*DB, error) {
	return ConnectDB(ctx, config.DB{
		Driver: DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name),
	}, logger)
}

// New wraps an existing handle without touching the schema.
func New(db *sqlx.DB, logger *slog.Logger) *DB {
	return &DB{DB: db, logger: logger}
}

func (db *DB) CloseDB() error {
	return db.DB.Close()
}

// RunMigrations applies the embedded schema for the connected driver. Every statement is idempotent.
func (db *DB) RunMigrations(ctx context.Context) error {
	file := "schema/postgres.sql"
	if db.DriverName() == DriverSQLite {
		file = "schema/sqlite.sql"
	}

	migrationSQL, err := schemaFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read schema %s: %w", file, err)
	}

	if _, err := db.ExecContext(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("failed to apply schema %s: %w", file, err)
	}

	db.logger.Debug("schema applied", "file", file)
	return nil
}

func (db *DB) HealthCheck(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	return db.PingContext(ctx)
}

// Executor returns an executor bound to the connection pool.
func (db *DB) Executor() *Executor {
	return NewExecutor(db.DB, db.logger)
}

// WithTx runs fn inside a transaction. The transaction commits when fn returns nil
// and rolls back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(*Executor) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				db.logger.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(NewExecutor(tx, db.logger)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dpetrovs/localsync/internal/server/migrations"
	"github.com/dpetrovs/localsync/internal/server/repositories/records"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends the PostgreSQL-backed repository and
// exposes a schema migration hook.
type PostgresRepositoryManager struct {
	db      *sql.DB
	records *records.PostgresRepository
}

// NewPostgresRepositoryManager opens a connection pool for the given DSN
// and verifies connectivity.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepositoryManager{
		db:      db,
		records: records.NewPostgresRepository(db),
	}, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the configured database.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Records() records.Repository {
	return m.records
}

func (m *PostgresRepositoryManager) Durable() bool {
	return true
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

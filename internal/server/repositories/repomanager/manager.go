// Package repomanager selects the persistence backend once at construction
// time: PostgreSQL when a DSN is configured, an in-memory substitute
// otherwise. Every operation after that goes through the same Repository
// interface, so none of the engine code branches on backend presence.
package repomanager

import (
	"context"

	"github.com/dpetrovs/localsync/internal/server/repositories/records"
)

type RepositoryManager interface {
	// RunMigrations prepares the schema. A no-op for the in-memory backend.
	RunMigrations(ctx context.Context) error

	// Records returns the sync-record repository.
	Records() records.Repository

	// Durable reports whether state survives a process restart. False means
	// the manager is running in degraded, process-local mode.
	Durable() bool

	Close() error
}

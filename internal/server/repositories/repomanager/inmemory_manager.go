package repomanager

import (
	"context"

	"github.com/dpetrovs/localsync/internal/server/repositories/records"
)

// InMemoryRepositoryManager serves state from a process-local map. It is
// the deliberate fallback when no database DSN is configured: calls keep
// working, but nothing survives a restart.
type InMemoryRepositoryManager struct {
	records *records.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{records: records.NewInMemoryRepository()}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Records() records.Repository {
	return m.records
}

func (m *InMemoryRepositoryManager) Durable() bool {
	return false
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}

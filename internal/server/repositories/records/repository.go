// Package records provides persistence for per-key sync records: a
// capability interface plus PostgreSQL and in-memory implementations
// selected once at construction time.
package records

import (
	"context"

	"github.com/dpetrovs/localsync/internal/server/models"
)

// Repository stores one SyncRecord per client key.
//
/// Update is the read-modify-write primitive: implementations must apply fn
// to the current record atomically with respect to other Update calls for
// the same key, even when the record is being created concurrently, so
// mutations never lose writes. When no record exists yet, fn receives an
// empty record carrying the key; timestamps may be zero or stamped by the
// backend, and callers keep an already-set CreatedAt.
type Repository interface {
	// Get returns the record for key, or common.ErrorNotFound.
	Get(ctx context.Context, key string) (*models.SyncRecord, error)

	// Put upserts the full record. CreatedAt is only written on insert.
	Put(ctx context.Context, rec *models.SyncRecord) error

	// Update atomically applies fn to the record for key and persists the
	// result, returning the post-mutation state. An error from fn aborts
	// the update without persisting.
	Update(ctx context.Context, key string, fn func(rec *models.SyncRecord) error) (*models.SyncRecord, error)

	// Keys lists every key that currently has a record.
	Keys(ctx context.Context) ([]string, error)
}

package records

import (
	"context"
	"sync"

	"github.com/dpetrovs/localsync/internal/common"
	"github.com/dpetrovs/localsync/internal/server/models"
)

// InMemoryRepository keeps records in a process-local map. It backs the
// degraded mode when no database is configured, and tests.
//
// A per-key mutex serializes Update calls for the same key; the map itself
// is guarded separately so unrelated keys never contend.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*models.SyncRecord

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]*models.SyncRecord),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (r *InMemoryRepository) keyLock(key string) *sync.Mutex {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()
	lk, ok := r.locks[key]
	if !ok {
		lk = &sync.Mutex{}
		r.locks[key] = lk
	}
	return lk
}

// Get returns a deep copy so callers never share the stored Files slice.
func (r *InMemoryRepository) Get(ctx context.Context, key string) (*models.SyncRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return rec.Clone(), nil
}

func (r *InMemoryRepository) Put(ctx context.Context, rec *models.SyncRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := rec.Clone()
	if existing, ok := r.records[rec.Key]; ok {
		// CreatedAt is immutable once set.
		stored.CreatedAt = existing.CreatedAt
	}
	r.records[rec.Key] = stored
	return nil
}

func (r *InMemoryRepository) Update(ctx context.Context, key string, fn func(rec *models.SyncRecord) error) (*models.SyncRecord, error) {
	lk := r.keyLock(key)
	lk.Lock()
	defer lk.Unlock()

	r.mu.RLock()
	cur, ok := r.records[key]
	r.mu.RUnlock()

	var work *models.SyncRecord
	if ok {
		work = cur.Clone()
	} else {
		work = &models.SyncRecord{Key: key}
	}

	if err := fn(work); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.records[key] = work.Clone()
	r.mu.Unlock()

	return work, nil
}

func (r *InMemoryRepository) Keys(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.records))
	for k := range r.records {
		keys = append(keys, k)
	}
	return keys, nil
}

// Package services holds the sync state engine and its blob-store
// collaborator. The engine owns the per-key record lifecycle: lazy
// creation, last-write-wins mutations, file retention sweeps, and the
// password gate.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/dpetrovs/localsync/internal/common"
	"github.com/dpetrovs/localsync/internal/filex"
	"github.com/dpetrovs/localsync/internal/logging"
	"github.com/dpetrovs/localsync/internal/server/config"
	"github.com/dpetrovs/localsync/internal/server/models"
	"github.com/dpetrovs/localsync/internal/server/repositories/records"
)

// errNoChange aborts a repository Update without persisting anything.
var errNoChange = errors.New("no change")

// SyncService is the sync state engine. It is passive: every method runs
// on a caller's goroutine, and sweeps only happen when an external trigger
// invokes them.
//
// Availability over strict durability: when a backend write fails after
// the mutation was computed, the engine serves the mutated value from a
// process-local last-known cache instead of failing the call
// (degradeToLastKnownOnWriteFailure). The failure is logged; it is not
// retried against the backend.
type SyncService struct {
	repo    records.Repository
	logger  logging.Logger
	durable bool

	retention   time.Duration
	pwdExpiry   time.Duration
	pwdExpiryOn bool

	// now is the clock; tests swap it to compress retention windows.
	now func() time.Time

	mu        sync.RWMutex
	lastKnown map[string]*models.SyncRecord
}

func NewSyncService(repo records.Repository, durable bool, cfg *config.Config, logger logging.Logger) *SyncService {
	return &SyncService{
		repo:        repo,
		logger:      logger.With("module", "sync_service"),
		durable:     durable,
		retention:   cfg.RetentionWindow,
		pwdExpiry:   cfg.PasswordExpiry,
		pwdExpiryOn: cfg.PasswordExpiryEnabled,
		now:         time.Now,
		lastKnown:   make(map[string]*models.SyncRecord),
	}
}

// Durable reports whether mutations reach persistent storage. False means
// the engine is running against the in-memory fallback and clients see
// process-local state only.
func (s *SyncService) Durable() bool {
	return s.durable
}

// IsExpired reports whether a file uploaded at t has outlived the
// retention window.
func (s *SyncService) IsExpired(t time.Time) bool {
	return s.now().Sub(t) > s.retention
}

// TimeRemaining returns how long a file uploaded at t has left before it
// expires, clamped at zero.
func (s *SyncService) TimeRemaining(t time.Time) time.Duration {
	remaining := t.Add(s.retention).Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Get returns the record for key, creating it lazily on first access.
// Reads never filter expired files (that is the sweep's job), but when
// password auto-expiry is enabled a stale password is cleared and the
// change persisted before the record is returned.
func (s *SyncService) Get(ctx context.Context, key string) (*models.SyncRecord, error) {
	if key == "" {
		return nil, common.ErrEmptyKey
	}

	rec, err := s.repo.Get(ctx, key)
	if errors.Is(err, common.ErrorNotFound) {
		return s.create(ctx, key)
	}
	if err != nil {
		return s.lastKnownOrError(ctx, key, err)
	}

	if s.passwordExpired(rec) {
		return s.mutate(ctx, key, func(rec *models.SyncRecord) {
			s.clearPassword(rec)
		})
	}

	s.remember(rec)
	return rec, nil
}

// create persists an empty record for key. Going through the repository's
// atomic Update means a concurrent first access cannot produce two
// divergent records: whichever call runs second sees CreatedAt already set.
func (s *SyncService) create(ctx context.Context, key string) (*models.SyncRecord, error) {
	return s.mutate(ctx, key, func(rec *models.SyncRecord) {})
}

// UpdateText replaces the text verbatim. Last writer wins; there is no
// merging or diffing.
func (s *SyncService) UpdateText(ctx context.Context, key, text string) (*models.SyncRecord, error) {
	return s.mutate(ctx, key, func(rec *models.SyncRecord) {
		rec.Text = text
	})
}

// AddFile appends the entry to the record's files. The caller must have
// already stored the bytes and obtained a URL; the engine never uploads.
// The display name is sanitized before storage and a zero UploadedAt is
// stamped with the current time.
func (s *SyncService) AddFile(ctx context.Context, key string, entry models.FileEntry) (*models.SyncRecord, error) {
	entry.Name = filex.SanitizeName(entry.Name)
	if entry.UploadedAt.IsZero() {
		entry.UploadedAt = s.now()
	}
	return s.mutate(ctx, key, func(rec *models.SyncRecord) {
		rec.Files = append(rec.Files, entry)
	})
}

// DeleteFile removes the entry with the given id and returns it so the
// caller can delete the underlying blob. A missing id is a no-op, not an
// error.
func (s *SyncService) DeleteFile(ctx context.Context, key, fileID string) (*models.SyncRecord, *models.FileEntry, error) {
	var removed *models.FileEntry
	rec, err := s.mutate(ctx, key, func(rec *models.SyncRecord) {
		kept := rec.Files[:0]
		for i := range rec.Files {
			if rec.Files[i].ID == fileID {
				f := rec.Files[i]
				removed = &f
				continue
			}
			kept = append(kept, rec.Files[i])
		}
		rec.Files = kept
	})
	if err != nil {
		return nil, nil, err
	}
	return rec, removed, nil
}

// SetPassword stores the caller-computed digest and locks the record. The
// engine never sees a plaintext password.
func (s *SyncService) SetPassword(ctx context.Context, key, passwordHash string) (*models.SyncRecord, error) {
	return s.mutate(ctx, key, func(rec *models.SyncRecord) {
		if passwordHash == "" {
			// An empty digest cannot lock anything.
			s.clearPassword(rec)
			return
		}
		now := s.now()
		rec.PasswordHash = passwordHash
		rec.IsLocked = true
		rec.PasswordCreatedAt = &now
	})
}

// RemovePassword clears the password gate.
func (s *SyncService) RemovePassword(ctx context.Context, key string) (*models.SyncRecord, error) {
	return s.mutate(ctx, key, func(rec *models.SyncRecord) {
		s.clearPassword(rec)
	})
}

// VerifyPassword compares the candidate digest against the stored one. A
// record without a stored hash always fails verification; callers should
// check IsLocked first.
func (s *SyncService) VerifyPassword(ctx context.Context, key, candidateHash string) (bool, error) {
	rec, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if rec.PasswordHash == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(rec.PasswordHash), []byte(candidateHash)) == 1, nil
}

// SweepRecord removes expired file entries from one record and returns
// what was removed so the caller can clean up blobs. A record with nothing
// expired is left completely untouched, including LastUpdated.
func (s *SyncService) SweepRecord(ctx context.Context, key string) ([]models.FileEntry, error) {
	if key == "" {
		return nil, common.ErrEmptyKey
	}

	var removed []models.FileEntry
	_, err := s.repo.Update(ctx, key, func(rec *models.SyncRecord) error {
		removed = removed[:0]
		kept := rec.Files[:0]
		for _, f := range rec.Files {
			if s.IsExpired(f.UploadedAt) {
				removed = append(removed, f)
				continue
			}
			kept = append(kept, f)
		}
		if len(removed) == 0 {
			return errNoChange
		}
		rec.Files = kept
		rec.LastUpdated = s.now()
		return nil
	})
	if errors.Is(err, errNoChange) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return removed, nil
}

// SweepAll applies SweepRecord to every known key. Individual failures are
// logged and skipped so one bad row never blocks the rest of the sweep.
func (s *SyncService) SweepAll(ctx context.Context) ([]models.FileEntry, error) {
	keys, err := s.repo.Keys(ctx)
	if err != nil {
		return nil, err
	}

	var removed []models.FileEntry
	for _, key := range keys {
		entries, err := s.SweepRecord(ctx, key)
		if err != nil {
			s.logger.Error(ctx, "sweep failed for key", "key", key, "error", err)
			continue
		}
		removed = append(removed, entries...)
	}

	s.logger.Info(ctx, "sweep finished", "keys", len(keys), "removed", len(removed))
	return removed, nil
}

// ResetAll clears text, files, and the password gate in one atomic update
// and returns the dropped file entries for blob cleanup. A reader never
// observes a partially cleared record.
func (s *SyncService) ResetAll(ctx context.Context, key string) ([]models.FileEntry, error) {
	var dropped []models.FileEntry
	_, err := s.mutate(ctx, key, func(rec *models.SyncRecord) {
		dropped = append(dropped[:0], rec.Files...)
		rec.Text = ""
		rec.Files = nil
		s.clearPassword(rec)
	})
	if err != nil {
		return nil, err
	}
	return dropped, nil
}

// mutate runs fn inside the repository's atomic read-modify-write,
// stamping creation and update timestamps. On a backend failure it falls
// back to the last-known in-memory state rather than losing the caller's
// intended update.
func (s *SyncService) mutate(ctx context.Context, key string, fn func(rec *models.SyncRecord)) (*models.SyncRecord, error) {
	if key == "" {
		return nil, common.ErrEmptyKey
	}

	apply := func(rec *models.SyncRecord) error {
		now := s.now()
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		fn(rec)
		rec.LastUpdated = now
		return nil
	}

	rec, err := s.repo.Update(ctx, key, apply)
	if err != nil {
		return s.degradeToLastKnown(ctx, key, apply, err)
	}

	s.remember(rec)
	return rec, nil
}

// degradeToLastKnown applies the pending mutation to the cached snapshot
// for key and serves the result. This trades strict durability for
// availability: the caller's update is visible to this process even while
// the backend is down.
func (s *SyncService) degradeToLastKnown(ctx context.Context, key string, apply func(rec *models.SyncRecord) error, cause error) (*models.SyncRecord, error) {
	s.logger.Error(ctx, "backend write failed, serving last-known state", "key", key, "error", cause)

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.lastKnown[key].Clone()
	if work == nil {
		work = &models.SyncRecord{Key: key}
	}
	if err := apply(work); err != nil {
		return nil, err
	}
	s.lastKnown[key] = work.Clone()
	return work, nil
}

// lastKnownOrError serves the cached snapshot during a backend outage so a
// polling client keeps seeing a consistent, if stale, view.
func (s *SyncService) lastKnownOrError(ctx context.Context, key string, cause error) (*models.SyncRecord, error) {
	s.mu.RLock()
	cached := s.lastKnown[key].Clone()
	s.mu.RUnlock()

	if cached == nil {
		return nil, cause
	}
	s.logger.Error(ctx, "backend read failed, serving last-known state", "key", key, "error", cause)
	return cached, nil
}

func (s *SyncService) remember(rec *models.SyncRecord) {
	s.mu.Lock()
	s.lastKnown[rec.Key] = rec.Clone()
	s.mu.Unlock()
}

func (s *SyncService) passwordExpired(rec *models.SyncRecord) bool {
	if !s.pwdExpiryOn || rec.PasswordHash == "" || rec.PasswordCreatedAt == nil {
		return false
	}
	return s.now().Sub(*rec.PasswordCreatedAt) > s.pwdExpiry
}

func (s *SyncService) clearPassword(rec *models.SyncRecord) {
	rec.PasswordHash = ""
	rec.IsLocked = false
	rec.PasswordCreatedAt = nil
}

package records

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dpetrovs/localsync/internal/common"
	"github.com/dpetrovs/localsync/internal/server/models"
)

func TestInMemory_GetMissing(t *testing.T) {
	t.Parallel()
	r := NewInMemoryRepository()

	if _, err := r.Get(context.Background(), "nope"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestInMemory_PutGetRoundTrip(t *testing.T) {
	t.Parallel()
	r := NewInMemoryRepository()
	ctx := context.Background()

	now := time.Now()
	rec := &models.SyncRecord{
		Key:         "k",
		Text:        "hello",
		Files:       []models.FileEntry{{ID: "f1", Name: "a.txt"}},
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := r.Put(ctx, rec); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := r.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Text != "hello" || len(got.Files) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}

	// Mutating the returned copy must not touch the stored record.
	got.Files[0].Name = "tampered"
	again, _ := r.Get(ctx, "k")
	if again.Files[0].Name != "a.txt" {
		t.Error("Get leaked a shared Files slice")
	}
}

func TestInMemory_PutPreservesCreatedAt(t *testing.T) {
	t.Parallel()
	r := NewInMemoryRepository()
	ctx := context.Background()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := r.Put(ctx, &models.SyncRecord{Key: "k", CreatedAt: created}); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := r.Put(ctx, &models.SyncRecord{Key: "k", CreatedAt: created.Add(time.Hour)}); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := r.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt overwritten: %v", got.CreatedAt)
	}
}

func TestInMemory_UpdateMissingGetsFreshRecord(t *testing.T) {
	t.Parallel()
	r := NewInMemoryRepository()

	rec, err := r.Update(context.Background(), "fresh", func(rec *models.SyncRecord) error {
		if rec.Key != "fresh" {
			t.Errorf("fn received wrong key: %q", rec.Key)
		}
		rec.Text = "first"
		return nil
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if rec.Text != "first" {
		t.Errorf("mutation not applied: %q", rec.Text)
	}
}

func TestInMemory_UpdateFnErrorDoesNotPersist(t *testing.T) {
	t.Parallel()
	r := NewInMemoryRepository()
	ctx := context.Background()

	wantErr := errors.New("abort")
	if _, err := r.Update(ctx, "k", func(rec *models.SyncRecord) error {
		return wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("want fn error, got %v", err)
	}

	if _, err := r.Get(ctx, "k"); !errors.Is(err, common.ErrorNotFound) {
		t.Errorf("aborted update must not create a record, got %v", err)
	}
}

func TestInMemory_ConcurrentUpdatesSameKey(t *testing.T) {
	t.Parallel()
	r := NewInMemoryRepository()
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Update(ctx, "k", func(rec *models.SyncRecord) error {
				rec.Files = append(rec.Files, models.FileEntry{ID: fmt.Sprintf("f%d", i)})
				return nil
			})
			if err != nil {
				t.Errorf("Update error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := r.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(got.Files) != n {
		t.Errorf("lost updates: expected %d files, got %d", n, len(got.Files))
	}
}

func TestInMemory_Keys(t *testing.T) {
	t.Parallel()
	r := NewInMemoryRepository()
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := r.Put(ctx, &models.SyncRecord{Key: k}); err != nil {
			t.Fatalf("Put error: %v", err)
		}
	}

	keys, err := r.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys error: %v", err)
	}
	if len(keys) != 3 {
		t.Errorf("expected 3 keys, got %v", keys)
	}
}

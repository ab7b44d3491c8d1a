// Package models defines the server-side data model persisted per client key.
package models

import "time"

// FileEntry describes one uploaded file's metadata. The bytes themselves
// live in object storage; the engine only tracks this record.
type FileEntry struct {
	// ID uniquely identifies the entry within its record.
	ID string `json:"id"`
	// Name is the sanitized display filename.
	Name string `json:"name"`
	// Size is the byte count reported at upload time.
	Size int64 `json:"size"`
	// UploadedAt is the expiration clock for the retention policy.
	UploadedAt time.Time `json:"uploadedAt"`
	// URL is the blob store's retrieval location.
	URL string `json:"url"`
	// ExternalRef and ExternalKind are opaque handles the blob store needs
	// to delete the physical object later. The engine never interprets them.
	ExternalRef  string `json:"externalRef,omitempty"`
	ExternalKind string `json:"externalKind,omitempty"`
}

// SyncRecord is the full sync state for one client key: a shared text
// snippet, uploaded file metadata, and the optional password gate.
type SyncRecord struct {
	Key   string      `json:"-"`
	Text  string      `json:"text"`
	Files []FileEntry `json:"files"`

	// PasswordHash is an opaque digest computed by the caller. Empty means
	// unlocked. It is never serialized to clients.
	PasswordHash      string     `json:"-"`
	IsLocked          bool       `json:"isLocked"`
	PasswordCreatedAt *time.Time `json:"-"`

	// CreatedAt is set on first creation and never changes afterwards.
	CreatedAt time.Time `json:"createdAt"`
	// LastUpdated is bumped on every mutation.
	LastUpdated time.Time `json:"lastUpdated"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// sharing the Files slice with concurrent mutators.
func (r *SyncRecord) Clone() *SyncRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.Files != nil {
		c.Files = make([]FileEntry, len(r.Files))
		copy(c.Files, r.Files)
	}
	if r.PasswordCreatedAt != nil {
		t := *r.PasswordCreatedAt
		c.PasswordCreatedAt = &t
	}
	return &c
}

// FileByID returns the entry with the given id, or nil when absent.
func (r *SyncRecord) FileByID(id string) *FileEntry {
	for i := range r.Files {
		if r.Files[i].ID == id {
			return &r.Files[i]
		}
	}
	return nil
}

// TotalSize sums the sizes of all file entries.
func (r *SyncRecord) TotalSize() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.Size
	}
	return total
}

package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dpetrovs/localsync/internal/common"
	"github.com/dpetrovs/localsync/internal/dbx"
	"github.com/dpetrovs/localsync/internal/server/models"
)

// PostgresRepository stores one row per key in sync_records. File metadata
// is serialized into a jsonb column; the blob bytes live elsewhere.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository constructs a repository bound to the given database.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `key, content, files, password_hash, password_created_at, is_locked, created_at, last_updated`

func (r *PostgresRepository) Get(ctx context.Context, key string) (*models.SyncRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM sync_records WHERE key=$1`
	return scanRecord(r.db.QueryRowContext(ctx, query, key))
}

// Put upserts the full record. On conflict created_at is left untouched so
// the first-creation timestamp survives later writes.
func (r *PostgresRepository) Put(ctx context.Context, rec *models.SyncRecord) error {
	return putRecord(ctx, r.db, rec)
}

// Update runs the read-modify-write inside a transaction with a row lock,
// so two concurrent mutations for the same key serialize at the database
// instead of losing one of the writes.
//
// A row that does not exist yet cannot be locked: two concurrent first
// writes would both see "no row" and the later commit would clobber the
// earlier one. When the locked select comes back empty, an empty row is
// inserted with ON CONFLICT DO NOTHING and the select is retried; by then
// exactly one row exists (ours or a rival's committed one) and the lock
// serializes everything after it.
func (r *PostgresRepository) Update(ctx context.Context, key string, fn func(rec *models.SyncRecord) error) (*models.SyncRecord, error) {
	var out *models.SyncRecord

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rec, err := lockRecord(ctx, tx, key)
		if errors.Is(err, common.ErrorNotFound) {
			if err := insertIfAbsent(ctx, tx, key); err != nil {
				return err
			}
			rec, err = lockRecord(ctx, tx, key)
		}
		if err != nil {
			return err
		}

		if err := fn(rec); err != nil {
			return err
		}
		if err := putRecord(ctx, tx, rec); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func lockRecord(ctx context.Context, tx dbx.DBTX, key string) (*models.SyncRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM sync_records WHERE key=$1 FOR UPDATE`
	return scanRecord(tx.QueryRowContext(ctx, query, key))
}

// insertIfAbsent creates an empty row for key unless one already exists.
// If a rival transaction is inserting the same key, this statement waits
// for it to commit and then does nothing, so the follow-up locked select
// always finds a row to lock.
func insertIfAbsent(ctx context.Context, tx dbx.DBTX, key string) error {
	query := `
		INSERT INTO sync_records (key, content, files, is_locked, created_at, last_updated)
		VALUES ($1, '', '[]'::jsonb, FALSE, now(), now())
		ON CONFLICT (key) DO NOTHING;
	`
	if _, err := tx.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM sync_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to select keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func putRecord(ctx context.Context, db dbx.DBTX, rec *models.SyncRecord) error {
	files, err := json.Marshal(rec.Files)
	if err != nil {
		return fmt.Errorf("failed to marshal files: %w", err)
	}

	var hash sql.NullString
	if rec.PasswordHash != "" {
		hash = sql.NullString{String: rec.PasswordHash, Valid: true}
	}
	var pwdCreated sql.NullTime
	if rec.PasswordCreatedAt != nil {
		pwdCreated = sql.NullTime{Time: *rec.PasswordCreatedAt, Valid: true}
	}

	query := `
		INSERT INTO sync_records (key, content, files, password_hash, password_created_at, is_locked, created_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (key)
		DO UPDATE SET
			content = EXCLUDED.content,
			files = EXCLUDED.files,
			password_hash = EXCLUDED.password_hash,
			password_created_at = EXCLUDED.password_created_at,
			is_locked = EXCLUDED.is_locked,
			last_updated = EXCLUDED.last_updated;
	`
	res, err := db.ExecContext(ctx, query,
		rec.Key, rec.Text, files, hash, pwdCreated, rec.IsLocked, rec.CreatedAt, rec.LastUpdated)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.SyncRecord, error) {
	var (
		rec        models.SyncRecord
		files      []byte
		hash       sql.NullString
		pwdCreated sql.NullTime
	)

	err := row.Scan(&rec.Key, &rec.Text, &files, &hash, &pwdCreated, &rec.IsLocked, &rec.CreatedAt, &rec.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select record: %w", err)
	}

	if len(files) > 0 {
		if err := json.Unmarshal(files, &rec.Files); err != nil {
			return nil, fmt.Errorf("failed to unmarshal files: %w", err)
		}
	}
	if hash.Valid {
		rec.PasswordHash = hash.String
	}
	if pwdCreated.Valid {
		t := pwdCreated.Time
		rec.PasswordCreatedAt = &t
	}
	return &rec, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/fingerprint"

	_ "modernc.org/sqlite"
)

// DefaultSlot names the row used when a database holds a single report.
const DefaultSlot = "default"

// FingerprintStore keeps the last published digest in a SQLite table.
type FingerprintStore struct {
	db   *sql.DB
	slot string
}

// NewFingerprintStore opens (creating if needed) the database at dbPath and
// applies pending migrations. An empty slot selects DefaultSlot.
func NewFingerprintStore(dbPath, slot string) (*FingerprintStore, error) {
	if slot == "" {
		slot = DefaultSlot
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &FingerprintStore{db: db, slot: slot}, nil
}

func (s *FingerprintStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *FingerprintStore) ReadPrevious(ctx context.Context) (fingerprint.Digest, bool, error) {
	var digest string
	err := s.db.QueryRowContext(ctx,
		`SELECT digest FROM fingerprint_state WHERE slot = ?`, s.slot,
	).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("FingerprintStore.ReadPrevious: %w", err)
	}
	if digest == "" {
		return "", false, nil
	}
	return fingerprint.Digest(digest), true, nil
}

func (s *FingerprintStore) Write(ctx context.Context, digest fingerprint.Digest) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fingerprint_state (slot, digest, updated_at, checked_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			digest = excluded.digest,
			updated_at = excluded.updated_at,
			checked_at = excluded.checked_at`,
		s.slot, string(digest), now, now,
	)
	if err != nil {
		return fmt.Errorf("FingerprintStore.Write: %w", err)
	}
	return nil
}

// Touch records a run that found the data unchanged. It is a no-op before
// the first Write.
func (s *FingerprintStore) Touch(ctx context.Context, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE fingerprint_state SET checked_at = ? WHERE slot = ?`,
		at.UTC().Format(time.RFC3339Nano), s.slot,
	)
	if err != nil {
		return fmt.Errorf("FingerprintStore.Touch: %w", err)
	}
	return nil
}

// Status reports when the stored digest was last written and last checked.
// ok is false when no digest has been written yet.
func (s *FingerprintStore) Status(ctx context.Context) (updatedAt, checkedAt time.Time, ok bool, err error) {
	var updated string
	var checked sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT updated_at, checked_at FROM fingerprint_state WHERE slot = ?`, s.slot,
	).Scan(&updated, &checked)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("FingerprintStore.Status: %w", err)
	}

	if updatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("FingerprintStore.Status: parse updated_at: %w", err)
	}
	if checked.Valid {
		if checkedAt, err = time.Parse(time.RFC3339Nano, checked.String); err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("FingerprintStore.Status: parse checked_at: %w", err)
		}
	}
	return updatedAt, checkedAt, true, nil
}

var (
	_ fingerprint.Store   = (*FingerprintStore)(nil)
	_ fingerprint.Toucher = (*FingerprintStore)(nil)
)

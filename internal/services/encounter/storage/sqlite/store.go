// Package sqlite provides a SQLite-backed encounter storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/progressions/shot-server/internal/platform/id"
	sqlitemigrate "github.com/progressions/shot-server/internal/platform/storage/sqlitemigrate"
	"github.com/progressions/shot-server/internal/services/encounter/storage"
	"github.com/progressions/shot-server/internal/services/encounter/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists encounter state in SQLite.
type Store struct {
	sqlDB       *sql.DB
	clock       func() time.Time
	idGenerator func() (string, error)
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// toNullString maps optional participant references to nullable columns.
func toNullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func fromNullString(value sql.NullString) string {
	if !value.Valid {
		return ""
	}
	return value.String
}

func toNullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func fromNullInt(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	result := int(value.Int64)
	return &result
}

// Open opens a SQLite encounter store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serializes read-then-write transactions; the busy
	// timeout alone cannot retry past BUSY_SNAPSHOT on a stale read.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{
		sqlDB:       sqlDB,
		clock:       time.Now,
		idGenerator: id.NewID,
	}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) now() time.Time {
	if s == nil || s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func (s *Store) newID() (string, error) {
	if s == nil || s.idGenerator == nil {
		return id.NewID()
	}
	return s.idGenerator()
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx, so existence checks
// can run inside or outside a transaction.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// fightExists reports whether the fight row is present, using the provided
// querier so transactional callers read inside their own transaction.
func fightExists(ctx context.Context, q rowQuerier, fightID string) error {
	var found int
	row := q.QueryRowContext(ctx, "SELECT 1 FROM fights WHERE id = ?", fightID)
	if err := row.Scan(&found); err != nil {
		if err == sql.ErrNoRows {
			return storage.ErrNotFound
		}
		return fmt.Errorf("check fight: %w", err)
	}
	return nil
}

func partyExists(ctx context.Context, q rowQuerier, partyID string) error {
	var found int
	row := q.QueryRowContext(ctx, "SELECT 1 FROM parties WHERE id = ?", partyID)
	if err := row.Scan(&found); err != nil {
		if err == sql.ErrNoRows {
			return storage.ErrNotFound
		}
		return fmt.Errorf("check party: %w", err)
	}
	return nil
}

var _ storage.Store = (*Store)(nil)

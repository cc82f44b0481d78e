package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/migrations"
	"github.com/dmitrijs2005/estimatekeeper/internal/logging"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// ErrClosed is returned by DB when the store has not been opened.
var ErrClosed = errors.New("local store is not open")

const memoryPath = ":memory:"

// Store is the device-local database.
type Store struct {
	path   string
	logger logging.Logger

	mu sync.RWMutex
	db *sql.DB
}

// New returns an unopened store for path. An empty path or ":memory:"
// selects a private in-memory database.
func New(path string, logger logging.Logger) *Store {
	if path == "" {
		path = memoryPath
	}
	return &Store{path: path, logger: logger.With("module", "store")}
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) inMemory() bool { return s.path == memoryPath }

func (s *Store) dsn() string {
	if s.inMemory() {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	return "file:" + s.path +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Open opens the database once; later calls return the same handle.
func (s *Store) Open(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open local store: %w", err)
	}

	s.db = db
	s.logger.Debug(ctx, "local store opened", "path", s.path)
	return db, nil
}

// DB returns the open handle.
func (s *Store) DB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// Close releases the handle. Closing a closed store is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Store) closeLocked() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// InitSchema creates missing tables and adds missing columns.
func (s *Store) InitSchema(ctx context.Context) error {
	db, err := s.DB()
	if err != nil {
		return err
	}
	return s.initSchema(ctx, db)
}

func (s *Store) initSchema(ctx context.Context, db *sql.DB) error {
	if err := runMigrations(ctx, db, migrations.Migrations); err != nil {
		return fmt.Errorf("migrate local store: %w", err)
	}
	added, err := ensureColumns(ctx, db, additiveColumns)
	if err != nil {
		return fmt.Errorf("add missing columns: %w", err)
	}
	for _, c := range added {
		s.logger.Info(ctx, "added column", "table", c.Table, "column", c.Name)
	}
	return nil
}

// OpenAndInit is the startup sequence: open, then initialize the schema.
func (s *Store) OpenAndInit(ctx context.Context) (*sql.DB, error) {
	db, err := s.Open(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.initSchema(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

// Reset deletes the database file and starts over with an empty schema.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	if err := s.closeLocked(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("close local store: %w", err)
	}
	if !s.inMemory() {
		for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
			if err := os.Remove(s.path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
				s.mu.Unlock()
				return fmt.Errorf("remove %s: %w", s.path+suffix, err)
			}
		}
	}
	s.mu.Unlock()

	s.logger.Warn(ctx, "local database removed", "path", s.path)

	if _, err := s.OpenAndInit(ctx); err != nil {
		return err
	}
	return nil
}

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

func runMigrations(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	return gooseUp(ctx, db, fsys)
}

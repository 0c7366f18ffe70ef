// Package storage owns the embedded relational engine behind every
// store-backed service: schema creation, seed data, parameterized queries and
// snapshot durability through a host key/value API.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"complaints/backend/internal/apperr"
	"complaints/backend/internal/kv"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the contract the services rely on.
type Storage interface {
	Initialize(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
	Execute(ctx context.Context, sql string, args ...any) (int64, error)
	Read(ctx context.Context, fn func(tx *gorm.DB) error) error
	Write(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options configures a Store.
type Options struct {
	// Driver is DriverSQLite (snapshot durability) or DriverPostgres (the
	// engine is durable itself and no snapshot is taken).
	Driver string
	// DSN is the Postgres connection string.
	DSN string
	// WorkDir holds the SQLite working file and temporary snapshot exports.
	WorkDir string
	// SnapshotKey is the KV key holding the encoded snapshot.
	SnapshotKey string
	// Seed overrides the embedded seed document.
	Seed   []byte
	Logger *logrus.Logger
}

// Store wraps the embedded engine. Mutations are serialized and, in SQLite
// mode, every successful mutation is followed by a full snapshot written to
// the KV under SnapshotKey.
type Store struct {
	opts Options
	kv   kv.KV
	log  *logrus.Entry

	initMu sync.Mutex
	mu     sync.Mutex // serializes mutations and their snapshot; taken before initMu
	db     *gorm.DB
	file   string
	native bool
}

var _ Storage = (*Store)(nil)

// New creates a Store. Nothing is opened until Initialize.
func New(store kv.KV, opts Options) *Store {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	if opts.SnapshotKey == "" {
		opts.SnapshotKey = "complaints_db"
	}
	return &Store{
		opts:   opts,
		kv:     store,
		log:    logging.Component(opts.Logger, "storage"),
		native: opts.Driver == DriverPostgres,
	}
}

// FromDB wraps an already-open engine. The store is treated as natively
// durable: no schema is created and no snapshot is taken.
func FromDB(db *gorm.DB) *Store {
	return &Store{
		opts:   Options{Driver: DriverPostgres},
		log:    logging.Component(nil, "storage"),
		db:     db,
		native: true,
	}
}

// Initialize opens the engine. A persisted snapshot is restored when one
// exists; otherwise the schema is created and seeded. Calling it again after
// success is a no-op, and concurrent first calls open the engine only once.
func (s *Store) Initialize(ctx context.Context) error {
	_, err := s.engine(ctx)
	return err
}

// engine returns the open engine bound to ctx, opening it first if needed.
func (s *Store) engine(ctx context.Context) (*gorm.DB, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.db == nil {
		var err error
		if s.native {
			err = s.openPostgres(ctx)
		} else {
			err = s.openSQLite(ctx)
		}
		if err != nil {
			return nil, err
		}
	}
	return s.db.WithContext(ctx), nil
}

func (s *Store) openPostgres(ctx context.Context) error {
	db, err := gorm.Open(postgres.Open(s.opts.DSN), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return apperr.Store(fmt.Errorf("failed to connect postgres: %w", err))
	}
	if err := migrate(db.WithContext(ctx)); err != nil {
		return apperr.Store(err)
	}
	if err := seed(db.WithContext(ctx), s.seedDocument()); err != nil {
		return apperr.Store(err)
	}
	s.db = db
	s.log.Info("Postgres store ready")
	return nil
}

func (s *Store) openSQLite(ctx context.Context) error {
	encoded, found, err := s.kv.Get(ctx, s.opts.SnapshotKey)
	if err != nil {
		return apperr.Store(fmt.Errorf("failed to read snapshot: %w", err))
	}

	var image []byte
	if found {
		image, err = decodeSnapshot(encoded)
		if err != nil {
			return apperr.Store(err)
		}
	}

	if err := os.MkdirAll(s.opts.WorkDir, 0o755); err != nil {
		return apperr.Store(fmt.Errorf("failed to create work dir: %w", err))
	}
	file := filepath.Join(s.opts.WorkDir, "complaints-"+uuid.New().String()+".db")
	if image != nil {
		if err := os.WriteFile(file, image, 0o600); err != nil {
			return apperr.Store(fmt.Errorf("failed to restore snapshot: %w", err))
		}
	}

	db, err := openSQLiteFile(file)
	if err != nil {
		os.Remove(file)
		return apperr.Store(err)
	}

	// AutoMigrate is additive, so older snapshots pick up new columns.
	if err := migrate(db.WithContext(ctx)); err != nil {
		closeDB(db)
		os.Remove(file)
		return apperr.Store(err)
	}

	if !found {
		if err := seed(db.WithContext(ctx), s.seedDocument()); err != nil {
			closeDB(db)
			os.Remove(file)
			return apperr.Store(err)
		}
	}

	if !found {
		// Persisted before db is published, so no write can interleave.
		if err := s.persist(ctx, db); err != nil {
			closeDB(db)
			os.Remove(file)
			return err
		}
		s.log.WithField("key", s.opts.SnapshotKey).Info("Created and seeded a new store")
	} else {
		s.log.WithFields(logrus.Fields{"key": s.opts.SnapshotKey, "bytes": len(image)}).Info("Restored store from snapshot")
	}

	s.db = db
	s.file = file
	return nil
}

func openSQLiteFile(file string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(file), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection: SQLite has a single writer and the foreign key pragma
	// is per connection.
	sqlDB.SetMaxOpenConns(1)
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return db, nil
}

// Query runs a read-only statement and returns one map per row.
func (s *Store) Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	db, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0)
	if err := db.Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, apperr.Store(err)
	}
	for _, row := range rows {
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
	}
	return rows, nil
}

// Execute runs a mutating statement and persists the result.
func (s *Store) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.engine(ctx)
	if err != nil {
		return 0, err
	}

	res := db.Exec(sql, args...)
	if res.Error != nil {
		metrics.RecordStoreWrite(res.Error)
		return 0, apperr.Store(res.Error)
	}
	if err := s.commitLocked(ctx, db); err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// Read runs fn against the engine.
func (s *Store) Read(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db, err := s.engine(ctx)
	if err != nil {
		return err
	}
	return apperr.Store(fn(db))
}

// Write runs fn in a transaction and persists after commit. Writes are
// serialized, so read-modify-write sequences inside fn never interleave. A
// write whose snapshot cannot be persisted is undone.
func (s *Store) Write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.engine(ctx)
	if err != nil {
		return err
	}

	if err := db.Transaction(fn); err != nil {
		metrics.RecordStoreWrite(err)
		return apperr.Store(err)
	}
	return s.commitLocked(ctx, db)
}

// commitLocked persists the engine after a mutation. When the snapshot cannot
// be written, the engine is reopened from the last persisted snapshot so the
// failed mutation is not visible and is not carried by the next write. The
// caller holds s.mu.
func (s *Store) commitLocked(ctx context.Context, db *gorm.DB) error {
	if s.native {
		metrics.RecordStoreWrite(nil)
		return nil
	}
	err := s.persist(ctx, db)
	if err == nil {
		return nil
	}
	if rbErr := s.reopenLocked(ctx); rbErr != nil {
		s.log.WithError(rbErr).Error("Failed to roll back to the persisted snapshot")
	} else {
		s.log.Warn("Rolled back a write that could not be persisted")
	}
	return err
}

// reopenLocked discards the open engine and opens it again from the persisted
// snapshot. The caller holds s.mu; s.mu is always taken before initMu.
func (s *Store) reopenLocked(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if err := s.closeLocked(); err != nil {
		return apperr.Store(err)
	}
	return s.openSQLite(ctx)
}

// Close releases the engine and removes the working file. The persisted
// snapshot is left untouched.
func (s *Store) Close() error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	return s.closeLocked()
}

// closeLocked is Close with initMu held.
func (s *Store) closeLocked() error {
	if s.db == nil {
		return nil
	}
	err := closeDB(s.db)
	s.db = nil
	if s.file != "" {
		if rmErr := os.Remove(s.file); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
		s.file = ""
	}
	return err
}

// Reload discards the open engine and initializes again from the persisted
// snapshot.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Close(); err != nil {
		return apperr.Store(err)
	}
	_, err := s.engine(ctx)
	return err
}

func (s *Store) seedDocument() []byte {
	if len(s.opts.Seed) > 0 {
		return s.opts.Seed
	}
	return defaultSeed
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

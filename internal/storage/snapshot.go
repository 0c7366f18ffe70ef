package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"complaints/backend/internal/apperr"
	"complaints/backend/internal/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SnapshotVersion is bumped whenever the schema changes incompatibly.
const SnapshotVersion = 1

type snapshotEnvelope struct {
	Version   int       `json:"version"`
	Engine    string    `json:"engine"`
	CreatedAt time.Time `json:"createdAt"`
	Data      string    `json:"data"`
}

func encodeSnapshot(image []byte) (string, error) {
	env := snapshotEnvelope{
		Version:   SnapshotVersion,
		Engine:    DriverSQLite,
		CreatedAt: time.Now().UTC(),
		Data:      base64.StdEncoding.EncodeToString(image),
	}
	b, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return string(b), nil
}

func decodeSnapshot(encoded string) ([]byte, error) {
	var env snapshotEnvelope
	if err := json.Unmarshal([]byte(encoded), &env); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if env.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d (want %d)", env.Version, SnapshotVersion)
	}
	if env.Engine != DriverSQLite {
		return nil, fmt.Errorf("unsupported snapshot engine %q", env.Engine)
	}
	image, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot data: %w", err)
	}
	return image, nil
}

// export copies the engine into a standalone image.
func (s *Store) export(ctx context.Context, db *gorm.DB) ([]byte, error) {
	tmp := filepath.Join(s.opts.WorkDir, "snapshot-"+uuid.New().String()+".db")
	defer os.Remove(tmp)

	stmt := fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(tmp, "'", "''"))
	if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return nil, fmt.Errorf("failed to export snapshot: %w", err)
	}
	image, err := os.ReadFile(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot export: %w", err)
	}
	return image, nil
}

// persist writes a full snapshot of db to the KV. Callers make sure no
// mutation runs concurrently.
func (s *Store) persist(ctx context.Context, db *gorm.DB) error {
	start := time.Now()
	image, err := s.export(ctx, db)
	if err == nil {
		var encoded string
		encoded, err = encodeSnapshot(image)
		if err == nil {
			err = s.kv.Set(ctx, s.opts.SnapshotKey, encoded)
		}
	}
	metrics.RecordStoreWrite(err)
	if err != nil {
		s.log.WithError(err).Error("Failed to persist snapshot")
		return apperr.Store(err)
	}

	metrics.RecordSnapshot(len(image), time.Since(start))
	s.log.WithField("bytes", len(image)).Debug("Snapshot persisted")
	return nil
}

// Snapshot returns the encoded snapshot of the current state.
func (s *Store) Snapshot(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.engine(ctx)
	if err != nil {
		return "", err
	}
	if s.native {
		return "", apperr.Validation("snapshots are only available with the %s driver", DriverSQLite)
	}

	image, err := s.export(ctx, db)
	if err != nil {
		return "", apperr.Store(err)
	}
	encoded, err := encodeSnapshot(image)
	return encoded, apperr.Store(err)
}

// Restore replaces the persisted snapshot with encoded and reopens the
// engine from it.
func (s *Store) Restore(ctx context.Context, encoded string) error {
	if s.native {
		return apperr.Validation("snapshots are only available with the %s driver", DriverSQLite)
	}
	if _, err := decodeSnapshot(encoded); err != nil {
		return apperr.Validation("%v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(ctx, s.opts.SnapshotKey, encoded); err != nil {
		return apperr.Store(err)
	}
	return s.reopenLocked(ctx)
}

// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package history persists the source modification time recorded at each
// successful copy, so repeated runs only copy what changed.
//
// The store assumes exclusive single-process access. Two syncfiles processes
// sharing one history file is undefined behavior; nothing here locks the file
// across processes.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	_ "modernc.org/sqlite" // SQLite driver.
)

// DefaultFilename is the history file created next to the executable
const DefaultFilename = ".syncfiles.history.db"

const schema = `
CREATE TABLE IF NOT EXISTS sync_history (
	source    TEXT PRIMARY KEY,
	mtime     INTEGER NOT NULL, -- unix nanoseconds
	synced_at TEXT NOT NULL     -- RFC3339
);
`

// 🗄️ Store reads and writes per-source sync history
type Store interface {
	// Get returns the mtime recorded at the last successful copy of source
	Get(ctx context.Context, source string) (mtime int64, ok bool, err error)
	// Set records mtime as the last synced mtime of source
	Set(ctx context.Context, source string, mtime int64) error
	// Len returns the number of recorded sources
	Len(ctx context.Context) (int, error)
	// Close releases the underlying handle
	Close() error
}

// SQLiteStore is a Store backed by a single SQLite file
type SQLiteStore struct {
	db   *sqlx.DB
	mu   sync.Mutex
	path string
}

var _ Store = (*SQLiteStore)(nil)

// 📍 DefaultPath returns the history file path beside the running executable
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultFilename), nil
}

// 🏭 Open opens the history at path, creating it if missing
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("opening history store")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Errorf("creating history directory: %w", err)
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, errors.Errorf("opening history store %s: %w", path, err)
	}
	// one writer; the store is not meant to be shared
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Errorf("initializing history schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the file backing the store
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Get(ctx context.Context, source string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var mtime int64
	err := s.db.GetContext(ctx, &mtime, "SELECT mtime FROM sync_history WHERE source = ?", source)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, errors.Errorf("reading history for %s: %w", source, err)
	}
	return mtime, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, source string, mtime int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO sync_history (source, mtime, synced_at) VALUES (?, ?, ?)",
		source, mtime, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errors.Errorf("writing history for %s: %w", source, err)
	}
	return nil
}

func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM sync_history"); err != nil {
		return 0, errors.Errorf("counting history: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jwebster45206/blossom-engine/pkg/settings"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
)

// SQLiteStorage implements the Storage interface on a local SQLite file.
// It backs single-player console play, where no Redis is available.
type SQLiteStorage struct {
	catalogFiles
	db         *sql.DB
	sessionTTL time.Duration
	locks      storage.SessionLocks
}

// Ensure SQLiteStorage implements Storage interface
var _ storage.Storage = (*SQLiteStorage)(nil)

// OpenSQLite creates or opens a SQLite database at dbPath, creating parent
// directories and running migrations as needed. A leading ~ expands to the
// home directory.
func OpenSQLite(dbPath, catalogDir string, sessionTTL time.Duration, logger *slog.Logger) (*SQLiteStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}

	s := &SQLiteStorage{
		catalogFiles: catalogFiles{dir: catalogDir, logger: logger},
		db:           db,
		sessionTTL:   sessionTTL,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	logger.Debug("SQLite storage opened", "path", dbPath)
	return s, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *SQLiteStorage) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS slots (
			name TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Session operations. A zero TTL keeps sessions forever.

// LockSession serializes session updates within this process. The database
// file belongs to a single console, so no cross-process lock is needed.
func (s *SQLiteStorage) LockSession(ctx context.Context, id uuid.UUID) (func(), error) {
	return s.locks.Lock(ctx, id)
}

func (s *SQLiteStorage) SaveSession(ctx context.Context, id uuid.UUID, checkpoint []byte) error {
	if len(checkpoint) == 0 {
		return errors.New("checkpoint cannot be empty")
	}
	var expiresAt int64
	if s.sessionTTL > 0 {
		expiresAt = time.Now().Add(s.sessionTTL).UnixMilli()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, data, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		id.String(), checkpoint, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadSession(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE id = ? AND (expires_at = 0 OR expires_at > ?)`,
		id.String(), time.Now().UnixMilli(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return data, nil
}

func (s *SQLiteStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Slot operations

func (s *SQLiteStorage) SaveSlot(ctx context.Context, name string, blob []byte) error {
	if name == "" {
		return errors.New("slot name cannot be empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO slots (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, blob, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save slot: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) LoadSlot(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM slots WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}
	return data, nil
}

func (s *SQLiteStorage) ListSlots(ctx context.Context) ([]storage.SlotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, length(data), updated_at FROM slots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	slots := make([]storage.SlotInfo, 0)
	for rows.Next() {
		var info storage.SlotInfo
		var updatedAt int64
		if err := rows.Scan(&info.Name, &info.Size, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		info.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		slots = append(slots, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (s *SQLiteStorage) DeleteSlot(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Settings operations

func (s *SQLiteStorage) LoadSettings(ctx context.Context) (settings.Settings, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM settings WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Default(), nil
	}
	if err != nil {
		return settings.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	out := settings.Default()
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		s.logger.Warn("Stored settings are unreadable, using defaults", "error", err)
		return settings.Default(), nil
	}
	return out, nil
}

func (s *SQLiteStorage) SaveSettings(ctx context.Context, st settings.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (id, data) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

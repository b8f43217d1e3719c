package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/blossom-engine/pkg/scenario"
	"github.com/jwebster45206/blossom-engine/pkg/settings"
)

// ErrNotFound is returned when a session, slot or catalog does not exist.
var ErrNotFound = errors.New("not found")

// ErrSessionBusy is returned when a session's lock is not acquired before
// the caller's context ends.
var ErrSessionBusy = errors.New("session is busy")

// DefaultSlot is the save slot used by quick save and quick load.
const DefaultSlot = "quicksave"

// SlotInfo describes a stored save without decoding it.
type SlotInfo struct {
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
	Size      int       `json:"size"`
}

// Storage defines a unified interface for all storage operations.
// Sessions and save slots are opaque blobs; only the engine and the save
// package know their contents.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session checkpoints for server-driven play
	SaveSession(ctx context.Context, id uuid.UUID, checkpoint []byte) error
	LoadSession(ctx context.Context, id uuid.UUID) ([]byte, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	// LockSession blocks until the caller holds the session's lock, so a
	// load, apply and save cycle runs alone. Call the returned func to release.
	LockSession(ctx context.Context, id uuid.UUID) (unlock func(), err error)

	// Named save slots
	SaveSlot(ctx context.Context, name string, blob []byte) error
	LoadSlot(ctx context.Context, name string) ([]byte, error)
	ListSlots(ctx context.Context) ([]SlotInfo, error)
	DeleteSlot(ctx context.Context, name string) error

	// Player preferences. LoadSettings returns defaults when none are stored.
	LoadSettings(ctx context.Context) (settings.Settings, error)
	SaveSettings(ctx context.Context, s settings.Settings) error

	// Catalog operations (filesystem-backed)
	ListCatalogs(ctx context.Context) (map[string]string, error)
	GetCatalog(ctx context.Context, filename string) (*scenario.Scenario, error)
}

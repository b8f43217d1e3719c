package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/blossom-engine/pkg/settings"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
)

func newTestSQLite(t *testing.T, ttl time.Duration) *SQLiteStorage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "saves.db")
	s, err := OpenSQLite(path, "", ttl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.db")
	ctx := context.Background()

	s, err := OpenSQLite(path, "", 0, nil)
	require.NoError(t, err)
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.SaveSlot(ctx, "keep", []byte("data")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path, "", 0, nil)
	require.NoError(t, err)
	defer s.Close()

	blob, err := s.LoadSlot(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, "data", string(blob))
}

func TestSQLiteStorage_Sessions(t *testing.T) {
	s := newTestSQLite(t, time.Hour)
	ctx := context.Background()
	id := uuid.New()

	_, err := s.LoadSession(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.SaveSession(ctx, id, []byte(`{"phase":"dialogue"}`)))
	require.NoError(t, s.SaveSession(ctx, id, []byte(`{"phase":"ended"}`)))

	data, err := s.LoadSession(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"phase":"ended"}`, string(data))

	require.NoError(t, s.DeleteSession(ctx, id))
	_, err = s.LoadSession(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteStorage_ExpiredSession(t *testing.T) {
	s := newTestSQLite(t, time.Nanosecond)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, s.SaveSession(ctx, id, []byte(`{}`)))
	time.Sleep(5 * time.Millisecond)

	_, err := s.LoadSession(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteStorage_Slots(t *testing.T) {
	s := newTestSQLite(t, 0)
	ctx := context.Background()

	require.NoError(t, s.SaveSlot(ctx, storage.DefaultSlot, []byte("one")))
	require.NoError(t, s.SaveSlot(ctx, "before-the-cave", []byte("three")))

	slots, err := s.ListSlots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "before-the-cave", slots[0].Name)
	assert.Equal(t, 5, slots[0].Size)
	assert.WithinDuration(t, time.Now(), slots[0].UpdatedAt, time.Minute)

	require.NoError(t, s.DeleteSlot(ctx, storage.DefaultSlot))
	assert.ErrorIs(t, s.DeleteSlot(ctx, storage.DefaultSlot), storage.ErrNotFound)
	_, err = s.LoadSlot(ctx, storage.DefaultSlot)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Error(t, s.SaveSlot(ctx, "", []byte("x")))
}

func TestSQLiteStorage_Settings(t *testing.T) {
	s := newTestSQLite(t, 0)
	ctx := context.Background()

	got, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.Default(), got)

	want := settings.Settings{TextSpeed: settings.SpeedForLevel(4), SkipMode: true}
	require.NoError(t, s.SaveSettings(ctx, want))
	require.NoError(t, s.SaveSettings(ctx, want))

	got, err = s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLiteStorage_LockSession(t *testing.T) {
	s := newTestSQLite(t, 0)
	ctx := context.Background()
	id := uuid.New()

	unlock, err := s.LockSession(ctx, id)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = s.LockSession(waitCtx, id)
	assert.ErrorIs(t, err, storage.ErrSessionBusy)

	unlock()
	again, err := s.LockSession(ctx, id)
	require.NoError(t, err)
	again()
}

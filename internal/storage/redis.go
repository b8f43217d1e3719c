package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/blossom-engine/pkg/settings"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
)

const (
	sessionPrefix = "session:"
	lockPrefix    = "session-lock:"
	slotPrefix    = "slot:"
	slotIndexKey  = "slots"
	settingsKey   = "settings"
)

// RedisStorage implements the Storage interface using Redis for sessions,
// slots and settings, and the filesystem for catalogs.
type RedisStorage struct {
	catalogFiles
	client     *redis.Client
	logger     *slog.Logger
	sessionTTL time.Duration
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL may be a
// redis:// URL or a bare host:port.
func NewRedisStorage(redisURL, catalogDir string, sessionTTL time.Duration, logger *slog.Logger) (*RedisStorage, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		opts = parsed
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RedisStorage{
		catalogFiles: catalogFiles{dir: catalogDir, logger: logger},
		client:       redis.NewClient(opts),
		logger:       logger,
		sessionTTL:   sessionTTL,
	}, nil
}

// Client exposes the underlying connection for components that share it,
// such as the event broadcaster.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Session operations

func (r *RedisStorage) SaveSession(ctx context.Context, id uuid.UUID, checkpoint []byte) error {
	if len(checkpoint) == 0 {
		return errors.New("checkpoint cannot be empty")
	}
	if err := r.client.Set(ctx, sessionPrefix+id.String(), checkpoint, r.sessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save session", "session_id", id, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSession(ctx context.Context, id uuid.UUID) ([]byte, error) {
	data, err := r.client.Get(ctx, sessionPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		r.logger.Error("Failed to load session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return data, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, sessionPrefix+id.String()).Err(); err != nil {
		r.logger.Error("Failed to delete session", "session_id", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

const (
	// lockTTL bounds how long a crashed holder can block a session.
	lockTTL   = 30 * time.Second
	lockRetry = 10 * time.Millisecond
)

// releaseLockScript deletes the lock only if the caller still owns it.
var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// LockSession takes session-lock:<id> with SetNX, retrying until ctx ends.
// Every API instance shares the lock, so events on one session never
// interleave.
func (r *RedisStorage) LockSession(ctx context.Context, id uuid.UUID) (func(), error) {
	lockKey := lockPrefix + id.String()
	owner := uuid.NewString()

	for {
		locked, err := r.client.SetNX(ctx, lockKey, owner, lockTTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", storage.ErrSessionBusy, ctx.Err())
			}
			r.logger.Error("Failed to acquire session lock", "session_id", id, "error", err)
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if locked {
			return func() { r.releaseSessionLock(id, lockKey, owner) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", storage.ErrSessionBusy, ctx.Err())
		case <-time.After(lockRetry):
		}
	}
}

func (r *RedisStorage) releaseSessionLock(id uuid.UUID, lockKey, owner string) {
	// The request context may already be done; release regardless.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := releaseLockScript.Run(ctx, r.client, []string{lockKey}, owner).Err(); err != nil {
		r.logger.Error("Failed to release session lock", "session_id", id, "error", err)
	}
}

// Slot operations. Blobs live under slot:<name>; the slots hash indexes
// their metadata for listing.

func (r *RedisStorage) SaveSlot(ctx context.Context, name string, blob []byte) error {
	if name == "" {
		return errors.New("slot name cannot be empty")
	}
	info, err := json.Marshal(storage.SlotInfo{Name: name, UpdatedAt: time.Now().UTC(), Size: len(blob)})
	if err != nil {
		return fmt.Errorf("failed to marshal slot info: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, slotPrefix+name, blob, 0)
		pipe.HSet(ctx, slotIndexKey, name, info)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save slot", "slot", name, "error", err)
		return fmt.Errorf("failed to save slot: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSlot(ctx context.Context, name string) ([]byte, error) {
	data, err := r.client.Get(ctx, slotPrefix+name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}
	return data, nil
}

func (r *RedisStorage) ListSlots(ctx context.Context) ([]storage.SlotInfo, error) {
	index, err := r.client.HGetAll(ctx, slotIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	slots := make([]storage.SlotInfo, 0, len(index))
	for name, raw := range index {
		var info storage.SlotInfo
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			r.logger.Warn("Skipping unreadable slot index entry", "slot", name, "error", err)
			continue
		}
		slots = append(slots, info)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Name < slots[j].Name })
	return slots, nil
}

func (r *RedisStorage) DeleteSlot(ctx context.Context, name string) error {
	var deleted *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, slotPrefix+name)
		pipe.HDel(ctx, slotIndexKey, name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	if deleted.Val() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Settings operations

func (r *RedisStorage) LoadSettings(ctx context.Context) (settings.Settings, error) {
	data, err := r.client.Get(ctx, settingsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return settings.Default(), nil
		}
		return settings.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	s := settings.Default()
	if err := json.Unmarshal(data, &s); err != nil {
		r.logger.Warn("Stored settings are unreadable, using defaults", "error", err)
		return settings.Default(), nil
	}
	return s, nil
}

func (r *RedisStorage) SaveSettings(ctx context.Context, s settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := r.client.Set(ctx, settingsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

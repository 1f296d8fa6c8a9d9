package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Storage persists form sessions between requests and owns the per-session
// submit in-flight guard. Implemented by Store; handlers depend on this so
// tests can substitute an in-memory fake.
type Storage interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AcquireSubmitLock(ctx context.Context, id uuid.UUID) (bool, error)
	ReleaseSubmitLock(ctx context.Context, id uuid.UUID)
}

// submitLockTTL bounds how long a stuck submit can keep a session locked.
const submitLockTTL = 30 * time.Second

// Store persists form sessions as JSON in Redis, one key per session with a
// sliding TTL, and owns the per-session submit in-flight guard.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStore creates a session store. Sessions expire after ttl of inactivity.
func NewStore(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{rdb: rdb, ttl: ttl, logger: logger}
}

// Save writes the session and refreshes its TTL.
func (st *Store) Save(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := st.rdb.Set(ctx, sessionKey(s.ID), raw, st.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get loads a session by id. Returns ErrNotFound for unknown or expired ids.
func (st *Store) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	raw, err := st.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		st.logger.Warn("corrupt session payload", zap.String("session_id", id.String()), zap.Error(err))
		return nil, ErrNotFound
	}
	return &s, nil
}

// Delete removes a session, typically after a successful submit.
func (st *Store) Delete(ctx context.Context, id uuid.UUID) error {
	return st.rdb.Del(ctx, sessionKey(id)).Err()
}

// AcquireSubmitLock takes the in-flight guard for a session. It returns false
// when a prior submit attempt has not resolved yet.
func (st *Store) AcquireSubmitLock(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := st.rdb.SetNX(ctx, submitKey(id), 1, submitLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire submit lock: %w", err)
	}
	return ok, nil
}

// ReleaseSubmitLock releases the in-flight guard once the attempt resolves.
func (st *Store) ReleaseSubmitLock(ctx context.Context, id uuid.UUID) {
	if err := st.rdb.Del(ctx, submitKey(id)).Err(); err != nil {
		st.logger.Warn("release submit lock failed", zap.String("session_id", id.String()), zap.Error(err))
	}
}

func sessionKey(id uuid.UUID) string { return "session:" + id.String() }
func submitKey(id uuid.UUID) string  { return "session:submit:" + id.String() }

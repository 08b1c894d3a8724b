package auth

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps refresh tokens between logins. Tokens are opaque random
// strings; the store maps them to user IDs until they expire or are revoked.
type SessionStore interface {
	Save(ctx context.Context, token string, userID int64, ttl time.Duration) error
	Get(ctx context.Context, token string) (int64, error)
	Delete(ctx context.Context, token string) error
}

const sessionPrefix = "session:refresh:"

// RedisSessionStore keeps sessions in Redis so they survive restarts and are
// shared across API nodes.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Save(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	return s.rdb.Set(ctx, sessionPrefix+token, strconv.FormatInt(userID, 10), ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (int64, error) {
	v, err := s.rdb.Get(ctx, sessionPrefix+token).Result()
	if err == redis.Nil {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionPrefix+token).Err()
}

type memorySession struct {
	userID    int64
	expiresAt time.Time
}

// MemorySessionStore backs sessions with a map. Good enough for single-node
// development and tests; sessions die with the process.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memorySession)}
}

func (s *MemorySessionStore) Save(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = memorySession{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, token string) (int64, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return 0, ErrSessionNotFound
	}
	if time.Now().After(sess.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return 0, ErrSessionNotFound
	}
	return sess.userID, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

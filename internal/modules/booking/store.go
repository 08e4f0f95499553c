// README: Session store backed by Redis.
package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"charter/internal/types"
)

const (
	sessionKeyPrefix = "booking:session:%s"
	// Editing sessions are short-lived; anything older than a day is abandoned.
	sessionTTL = 24 * time.Hour
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) Put(ctx context.Context, sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.redis.Set(ctx, sessionKey(sess.ID), payload, sessionTTL).Err()
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Session, error) {
	val, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if sess.Edits == nil {
		sess.Edits = NewEditSet()
	}
	return &sess, nil
}

func (s *Store) Delete(ctx context.Context, id types.ID) error {
	return s.redis.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id types.ID) string {
	return fmt.Sprintf(sessionKeyPrefix, string(id))
}

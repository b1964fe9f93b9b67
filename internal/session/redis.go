package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/me/showrunner/internal/store"
	"github.com/me/showrunner/pkg/model"
)

// RedisStore keeps sessions in Redis. Each session is a JSON value whose
// TTL matches its expiry; a per-user set indexes session ids for bulk deletion.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a RedisStore. Keys are namespaced under prefix.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "showrunner"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":sess:" + id
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + ":user:" + userID
}

// record is the stored form of a session. model.Session hides the
// reset token and flashes from JSON, so they are carried explicitly.
type record struct {
	ID                string `json:"id"`
	UserID            string `json:"user_id"`
	Username          string `json:"username"`
	Role              string `json:"role"`
	MustResetPassword bool   `json:"must_reset_password,omitempty"`
	ResetToken        string `json:"reset_token,omitempty"`
	FlashSuccess      string `json:"flash_success,omitempty"`
	FlashError        string `json:"flash_error,omitempty"`
	CreatedAt         int64  `json:"created_at"`
	ExpiresAt         int64  `json:"expires_at"`
}

func encode(sess *model.Session) ([]byte, error) {
	return json.Marshal(record{
		ID:                sess.ID,
		UserID:            sess.UserID,
		Username:          sess.Username,
		Role:              sess.Role,
		MustResetPassword: sess.MustResetPassword,
		ResetToken:        sess.ResetToken,
		FlashSuccess:      sess.FlashSuccess,
		FlashError:        sess.FlashError,
		CreatedAt:         sess.CreatedAt.Unix(),
		ExpiresAt:         sess.ExpiresAt.Unix(),
	})
}

func decode(data []byte) (*model.Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &model.Session{
		ID:                rec.ID,
		UserID:            rec.UserID,
		Username:          rec.Username,
		Role:              rec.Role,
		MustResetPassword: rec.MustResetPassword,
		ResetToken:        rec.ResetToken,
		FlashSuccess:      rec.FlashSuccess,
		FlashError:        rec.FlashError,
		CreatedAt:         time.Unix(rec.CreatedAt, 0),
		ExpiresAt:         time.Unix(rec.ExpiresAt, 0),
	}, nil
}

func (s *RedisStore) CreateSession(ctx context.Context, sess *model.Session) error {
	data, err := encode(sess)
	if err != nil {
		return err
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.ID), data, ttl)
		pipe.SAdd(ctx, s.userKey(sess.UserID), sess.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis create session: %w", err)
	}
	return nil
}

func (s *RedisStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return decode(data)
}

// UpdateSession rewrites a live session without touching its TTL.
func (s *RedisStore) UpdateSession(ctx context.Context, sess *model.Session) error {
	data, err := encode(sess)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetXX(ctx, s.key(sess.ID), data, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("redis update session: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s: %w", sess.ID, store.ErrNotFound)
	}
	return nil
}

func (s *RedisStore) DeleteSession(ctx context.Context, id string) error {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis get session: %w", err)
	}
	sess, err := decode(data)
	if err != nil {
		return s.rdb.Del(ctx, s.key(id)).Err()
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(id))
		pipe.SRem(ctx, s.userKey(sess.UserID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions prunes user index entries whose session key has
// already expired. Redis removes the session values itself.
func (s *RedisStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	var pruned int64
	iter := s.rdb.Scan(ctx, 0, s.userKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		userKey := iter.Val()
		ids, err := s.rdb.SMembers(ctx, userKey).Result()
		if err != nil {
			return pruned, fmt.Errorf("redis list user sessions: %w", err)
		}
		for _, id := range ids {
			n, err := s.rdb.Exists(ctx, s.key(id)).Result()
			if err != nil {
				return pruned, fmt.Errorf("redis exists: %w", err)
			}
			if n == 0 {
				if err := s.rdb.SRem(ctx, userKey, id).Err(); err != nil {
					return pruned, fmt.Errorf("redis prune: %w", err)
				}
				pruned++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return pruned, fmt.Errorf("redis scan: %w", err)
	}
	return pruned, nil
}

func (s *RedisStore) DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error) {
	userKey := s.userKey(userID)
	ids, err := s.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis list user sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	var del *redis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, keys...)
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis delete user sessions: %w", err)
	}
	return del.Val(), nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ivankosh/photoflow/internal/model"
)

// RedisShareStore persists share grants as JSON values with a native
// Redis TTL, so grants survive restarts and are visible to every server
// instance. Redis evicts expired keys itself; a grant that was stored
// with no remaining lifetime is simply never written.
type RedisShareStore struct {
	RDB    *redis.Client
	Prefix string
}

func NewRedisShareStore(rdb *redis.Client) *RedisShareStore {
	return &RedisShareStore{RDB: rdb, Prefix: "share:"}
}

var _ ShareStore = (*RedisShareStore)(nil)

func (s *RedisShareStore) PutGrant(ctx context.Context, g model.ShareGrant) error {
	ttl := time.Until(g.ExpiresAt)
	if ttl <= 0 {
		// Born expired; resolving it reports not-found either way.
		return nil
	}
	body, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return s.RDB.Set(ctx, s.Prefix+g.Token, body, ttl).Err()
}

func (s *RedisShareStore) GetGrant(ctx context.Context, token string) (model.ShareGrant, error) {
	body, err := s.RDB.Get(ctx, s.Prefix+token).Bytes()
	if err == redis.Nil {
		return model.ShareGrant{}, ErrShareNotFound
	}
	if err != nil {
		return model.ShareGrant{}, err
	}
	var g model.ShareGrant
	if err := json.Unmarshal(body, &g); err != nil {
		return model.ShareGrant{}, err
	}
	return g, nil
}

func (s *RedisShareStore) DeleteGrant(ctx context.Context, token string) error {
	return s.RDB.Del(ctx, s.Prefix+token).Err()
}

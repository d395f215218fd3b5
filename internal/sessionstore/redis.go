package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:refresh:"

// compare-and-delete has to be a single server-side op so two concurrent
// refresh calls cannot both observe the old token.
const compareAndDeleteScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type RedisStore struct {
	client *redis.Client
	script *redis.Script
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		script: redis.NewScript(compareAndDeleteScript),
	}
}

func (s *RedisStore) PutRefresh(ctx context.Context, userID, token string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+userID, token, ttl).Err()
}

func (s *RedisStore) GetRefresh(ctx context.Context, userID string) (string, error) {
	val, err := s.client.Get(ctx, keyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisStore) CompareAndDelete(ctx context.Context, userID, token string) (bool, error) {
	deleted, err := s.script.Run(ctx, s.client, []string{keyPrefix + userID}, token).Int64()
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}

func (s *RedisStore) DeleteRefresh(ctx context.Context, userID string) error {
	return s.client.Del(ctx, keyPrefix+userID).Err()
}

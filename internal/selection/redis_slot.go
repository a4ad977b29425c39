package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-skip-selector/internal/redisx"
	"github.com/redis/go-redis/v9"
)

type RedisSlot struct {
	Redis *redis.Client
	TTL   time.Duration // 0 = no expiry
}

func (s *RedisSlot) redisKey(key string) string {
	return fmt.Sprintf(redisx.KeySelection, key)
}

func (s *RedisSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.Redis.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisSlot) Put(ctx context.Context, key string, value []byte) error {
	return s.Redis.Set(ctx, s.redisKey(key), value, s.TTL).Err()
}

func (s *RedisSlot) Delete(ctx context.Context, key string) error {
	return s.Redis.Del(ctx, s.redisKey(key)).Err()
}

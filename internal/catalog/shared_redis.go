package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-skip-selector/internal/redisx"
	"github.com/ariefcatur/go-skip-selector/internal/skips"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares fetched catalogs between API replicas.
type RedisStore struct {
	Redis *redis.Client
}

type sharedRecord struct {
	FetchedAt time.Time     `json:"fetched_at"`
	Skips     skips.Catalog `json:"skips"`
}

func catalogKey(q skips.Query) string {
	return fmt.Sprintf(redisx.KeyCatalog, q.Postcode, q.Area)
}

func (s *RedisStore) Load(ctx context.Context, q skips.Query) (skips.Catalog, time.Time, bool, error) {
	b, err := s.Redis.Get(ctx, catalogKey(q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	var rec sharedRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("decode shared catalog: %w", err)
	}
	return rec.Skips, rec.FetchedAt, true, nil
}

func (s *RedisStore) Save(ctx context.Context, q skips.Query, c skips.Catalog, fetchedAt time.Time, ttl time.Duration) error {
	b, err := json.Marshal(sharedRecord{FetchedAt: fetchedAt.UTC(), Skips: c})
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, catalogKey(q), b, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, q skips.Query) error {
	return s.Redis.Del(ctx, catalogKey(q)).Err()
}

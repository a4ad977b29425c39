package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	kafkax "github.com/ariefcatur/go-skip-selector/internal/kafka"
	"github.com/ariefcatur/go-skip-selector/internal/redisx"
	"github.com/ariefcatur/go-skip-selector/internal/skips"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Invalidator applies CatalogInvalidated events to a local Cache.
type Invalidator struct {
	Cache *Cache
	Redis *redis.Client // optional, dedup per instance
	// Instance scopes dedup keys; every replica must see every event.
	Instance string
}

// HandleCatalogInvalidated: dipasang sebagai handler consumer.
func (s *Invalidator) HandleCatalogInvalidated(ctx context.Context, m kafkago.Message) error {
	var env skips.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != skips.EventCatalogInvalidated {
		return nil
	} // ignore

	var dkey string
	if s.Redis != nil {
		dkey = fmt.Sprintf(redisx.KeyDedup, s.Instance, env.EventID)
		first, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup)
		if err == nil && !first {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[skips.CatalogInvalidatedPayload](env.Payload)
	if err != nil {
		return err
	}
	q := skips.Query{Postcode: p.Postcode, Area: p.Area}
	if err := q.Validate(); err != nil {
		log.Printf("invalidation %s dropped: %v", env.EventID, err)
		return nil
	}
	if err := s.Cache.Invalidate(ctx, q); err != nil {
		// let the redelivery through
		if dkey != "" {
			_ = s.Redis.Del(ctx, dkey).Err()
		}
		return err
	}
	log.Printf("catalog %s invalidated (event=%s reason=%q)", q.Key(), env.EventID, p.Reason)
	return nil
}

// NewInvalidatedEnvelope builds the event published by operators.
func NewInvalidatedEnvelope(q skips.Query, reason, producer string) skips.Envelope {
	return skips.Envelope{
		EventID:       uuid.NewString(),
		EventType:     skips.EventCatalogInvalidated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: q.Key(),
		Payload: kafkax.MustMarshal(skips.CatalogInvalidatedPayload{
			Postcode: q.Postcode, Area: q.Area, Reason: reason,
		}),
	}
}

// PublishInvalidation sends one CatalogInvalidated event.
func PublishInvalidation(p *kafkax.Producer, q skips.Query, reason, producer string) skips.Envelope {
	ev := NewInvalidatedEnvelope(q, reason, producer)
	kafkax.EnvelopeEmitter{P: p}.Emit(ev)
	return ev
}

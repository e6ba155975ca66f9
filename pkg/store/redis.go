package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/occlusionlab/occlude/pkg/card"
	"github.com/occlusionlab/occlude/pkg/errors"
	"github.com/occlusionlab/occlude/pkg/observability"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string // host:port
	Password string
	DB       int

	// Prefix namespaces all keys, so several decks can share one Redis.
	// Defaults to "occlude".
	Prefix string
}

// Redis stores each persisted map as one Redis hash, card id to JSON.
// Writes are durable as soon as Redis acknowledges them, so Persist is a
// barrier that only reports timing.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "connecting to redis at %s", cfg.Addr)
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "occlude"
	}
	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) key(collection string) string {
	return r.prefix + ":" + collection
}

func getJSON[T any](ctx context.Context, r *Redis, collection, id string) (T, bool, error) {
	var zero T
	data, err := r.client.HGet(ctx, r.key(collection), id).Bytes()
	if err == redis.Nil {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "reading %s/%s", collection, id)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		// Treat a corrupt entry as absent, matching the file backend.
		return zero, false, nil
	}
	return v, true, nil
}

func putJSON(ctx context.Context, r *Redis, collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistFailed, err, "encoding %s/%s", collection, id)
	}
	if err := r.client.HSet(ctx, r.key(collection), id, data).Err(); err != nil {
		return errors.Wrap(errors.ErrCodePersistFailed, err, "writing %s/%s", collection, id)
	}
	return nil
}

// ParentDefinition implements Store, clamping loaded rectangles.
func (r *Redis) ParentDefinition(ctx context.Context, parentID string) (card.ParentDefinition, bool, error) {
	def, ok, err := getJSON[card.ParentDefinition](ctx, r, "definitions", parentID)
	if !ok || err != nil {
		return def, ok, err
	}
	return def.Clamped(), true, nil
}

// PutParentDefinition implements Store.
func (r *Redis) PutParentDefinition(ctx context.Context, parentID string, def card.ParentDefinition) error {
	return putJSON(ctx, r, "definitions", parentID, def)
}

// Parent implements Store.
func (r *Redis) Parent(ctx context.Context, id string) (card.Card, bool, error) {
	return getJSON[card.Card](ctx, r, "parents", id)
}

// PutParent implements Store.
func (r *Redis) PutParent(ctx context.Context, c card.Card) error {
	return putJSON(ctx, r, "parents", c.ID, c)
}

// ParentIDs implements Store.
func (r *Redis) ParentIDs(ctx context.Context) ([]string, error) {
	ids, err := r.client.HKeys(ctx, r.key("definitions")).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "listing parent ids")
	}
	return ids, nil
}

// Children implements card.ChildStore. Decks are small enough that reading
// the whole hash and filtering is fine.
func (r *Redis) Children(ctx context.Context, parentID string) ([]card.ChildRecord, error) {
	all, err := r.client.HGetAll(ctx, r.key("children")).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "listing children")
	}
	var out []card.ChildRecord
	for _, raw := range all {
		var c card.ChildRecord
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			continue
		}
		if c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Child returns one child record by id.
func (r *Redis) Child(ctx context.Context, id string) (card.ChildRecord, bool, error) {
	return getJSON[card.ChildRecord](ctx, r, "children", id)
}

// PutChild implements card.ChildStore.
func (r *Redis) PutChild(ctx context.Context, child card.ChildRecord) error {
	return putJSON(ctx, r, "children", child.ID, child)
}

// Scheduling implements card.ChildStore.
func (r *Redis) Scheduling(ctx context.Context, cardID string) (card.SchedulingRecord, bool, error) {
	return getJSON[card.SchedulingRecord](ctx, r, "scheduling", cardID)
}

// PutScheduling implements card.ChildStore.
func (r *Redis) PutScheduling(ctx context.Context, rec card.SchedulingRecord) error {
	return putJSON(ctx, r, "scheduling", rec.CardID, rec)
}

// Persist implements Store. Redis writes are already durable; this only
// reports through the store hooks.
func (r *Redis) Persist(ctx context.Context) error {
	start := time.Now()
	observability.Store().OnPersist(ctx, "redis", time.Since(start), nil)
	return nil
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Store = (*Redis)(nil)

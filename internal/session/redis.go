package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
)

const (
	keyPrefix = "admin:draft:"

	// maxUpdateAttempts bounds retries when a concurrent writer touches the
	// same key between WATCH and EXEC.
	maxUpdateAttempts = 5
)

// RedisStore is a Store shared across service replicas.
type RedisStore[T any] struct {
	client redis.UniversalClient
	kind   string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore for drafts of the given kind.
func NewRedisStore[T any](client redis.UniversalClient, kind string, ttl time.Duration) *RedisStore[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore[T]{client: client, kind: kind, ttl: ttl}
}

func (s *RedisStore[T]) key(id string) string {
	return keyPrefix + s.kind + ":" + id
}

func (s *RedisStore[T]) Create(ctx context.Context, v T) (string, error) {
	data, err := encode(v)
	if err != nil {
		return "", err
	}
	id := newID()
	ok, err := s.client.SetNX(ctx, s.key(id), data, s.ttl).Result()
	observe(s.kind, "create", err)
	if err != nil {
		return "", fmt.Errorf("redis create %s session: %w", s.kind, err)
	}
	if !ok {
		return "", apperrors.Conflict("session id collision")
	}
	return id, nil
}

func (s *RedisStore[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	observe(s.kind, "get", ignoreNil(err))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, apperrors.NotFound(s.kind, id)
		}
		return zero, fmt.Errorf("redis get %s session: %w", s.kind, err)
	}
	return decode[T](data)
}

func (s *RedisStore[T]) Update(ctx context.Context, id string, fn func(*T) error) (T, error) {
	key := s.key(id)
	var out T

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return apperrors.NotFound(s.kind, id)
			}
			return err
		}
		v, err := decode[T](data)
		if err != nil {
			return err
		}
		if err := fn(&v); err != nil {
			return err
		}
		data, err = encode(v)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err == nil {
			out = v
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		observe(s.kind, "update", err)
		return out, err
	}
	observe(s.kind, "update", redis.TxFailedErr)
	return out, apperrors.Conflict("draft was modified concurrently, retry the request")
}

func (s *RedisStore[T]) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	observe(s.kind, "delete", err)
	if err != nil {
		return fmt.Errorf("redis delete %s session: %w", s.kind, err)
	}
	if n == 0 {
		return apperrors.NotFound(s.kind, id)
	}
	return nil
}

func ignoreNil(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

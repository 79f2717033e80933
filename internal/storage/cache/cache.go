// Package cache wraps a storage.Store with a Redis read-through cache.
//
// Calculations are cached by id and invalidated on update. Short links never
// change once created, so they are cached without invalidation. Redis
// failures are logged and the call falls through to the wrapped store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/storage"
)

const keyPrefix = "nekolators:"

var _ storage.Store = (*Store)(nil)

// Store is a caching storage.Store.
type Store struct {
	inner storage.Store
	rdb   redis.UniversalClient
	ttl   time.Duration
}

// New wraps inner with a cache kept in rdb. Entries expire after ttl.
func New(inner storage.Store, rdb redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{inner: inner, rdb: rdb, ttl: ttl}
}

// Connect creates a Redis client for addr and checks the connection.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	slog.Info("Connected to redis", "addr", addr)
	return rdb, nil
}

func calculationKey(id string) string { return keyPrefix + "calc:" + id }
func expertKey(id string) string      { return keyPrefix + "expert:" + id }
func linkCodeKey(code string) string  { return keyPrefix + "link:" + code }
func linkCalcKey(t models.CalculationType, id string) string {
	return keyPrefix + "link:" + string(t) + ":" + id
}

// Close closes the wrapped store. The Redis client is owned by the caller.
func (s *Store) Close() error {
	return s.inner.Close()
}

func (s *Store) CreateCalculation(ctx context.Context, calc *models.Calculation) error {
	return s.inner.CreateCalculation(ctx, calc)
}

func (s *Store) GetCalculation(ctx context.Context, id string) (*models.Calculation, error) {
	return readThrough(ctx, s, calculationKey(id), func() (*models.Calculation, error) {
		return s.inner.GetCalculation(ctx, id)
	})
}

func (s *Store) UpdateCalculation(ctx context.Context, calc *models.Calculation) error {
	if err := s.inner.UpdateCalculation(ctx, calc); err != nil {
		return err
	}
	s.invalidate(ctx, calculationKey(calc.ID))
	return nil
}

func (s *Store) CreateExpertCalculation(ctx context.Context, calc *models.ExpertCalculation) error {
	return s.inner.CreateExpertCalculation(ctx, calc)
}

func (s *Store) GetExpertCalculation(ctx context.Context, id string) (*models.ExpertCalculation, error) {
	return readThrough(ctx, s, expertKey(id), func() (*models.ExpertCalculation, error) {
		return s.inner.GetExpertCalculation(ctx, id)
	})
}

func (s *Store) UpdateExpertCalculation(ctx context.Context, calc *models.ExpertCalculation) error {
	if err := s.inner.UpdateExpertCalculation(ctx, calc); err != nil {
		return err
	}
	s.invalidate(ctx, expertKey(calc.ID))
	return nil
}

func (s *Store) CreateShortLink(ctx context.Context, link *models.ShortLink) error {
	return s.inner.CreateShortLink(ctx, link)
}

func (s *Store) ResolveShortLink(ctx context.Context, code string) (*models.ShortLink, error) {
	return readThrough(ctx, s, linkCodeKey(code), func() (*models.ShortLink, error) {
		return s.inner.ResolveShortLink(ctx, code)
	})
}

func (s *Store) GetShortLinkByCalculation(ctx context.Context, calcType models.CalculationType, calcID string) (*models.ShortLink, error) {
	return readThrough(ctx, s, linkCalcKey(calcType, calcID), func() (*models.ShortLink, error) {
		return s.inner.GetShortLinkByCalculation(ctx, calcType, calcID)
	})
}

// readThrough returns the cached value at key, or loads it and caches it.
// Misses in the wrapped store are not cached.
func readThrough[T any](ctx context.Context, s *Store, key string, load func() (*T, error)) (*T, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			return &v, nil
		}
		slog.Warn("Discarding corrupt cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		slog.Warn("Cache read failed", "key", key, "error", err)
	}

	v, err := load()
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(v); err == nil {
		if err := s.rdb.Set(ctx, key, b, s.ttl).Err(); err != nil {
			slog.Warn("Cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}

func (s *Store) invalidate(ctx context.Context, key string) {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		slog.Warn("Cache invalidation failed", "key", key, "error", err)
	}
}

// Package cache keeps keyword resolutions in Redis so repeated searches do not
// repeat the label and existence queries against the graph.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/redis"
)

const keyPrefix = "resolve:"

// Backend is the subset of the Redis client the cache needs.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Store caches resolved URIs. An empty value records that a keyword did not
// resolve.
type Store struct {
	backend Backend
	ttl     time.Duration
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(backend Backend, ttl time.Duration) *Store {
	return &Store{
		backend: backend,
		ttl:     ttl,
		logger:  slog.Default().With("component", "resolve-cache"),
	}
}

func (s *Store) Get(ctx context.Context, kind, keyword string) (string, bool) {
	key := buildKey(kind, keyword)
	value, err := s.backend.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			s.logger.Error("cache get failed", "key", key, "error", err)
		}
		s.misses.Add(1)
		return "", false
	}
	s.hits.Add(1)
	s.logger.Debug("cache hit", "kind", kind, "keyword", keyword)
	return value, true
}

func (s *Store) Set(ctx context.Context, kind, keyword, uri string) {
	key := buildKey(kind, keyword)
	if err := s.backend.Set(ctx, key, uri, s.ttl); err != nil {
		s.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// Invalidate removes every cached resolution.
func (s *Store) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := s.backend.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating resolve cache: %w", err)
	}
	s.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (s *Store) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

func buildKey(kind, keyword string) string {
	hash := sha256.Sum256([]byte(kind + "|" + strings.ToLower(strings.TrimSpace(keyword))))
	return fmt.Sprintf("%s%s:%x", keyPrefix, kind, hash[:16])
}

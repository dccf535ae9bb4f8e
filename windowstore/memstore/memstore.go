/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package memstore provides a process-local throttle.WindowStore.
// It suits single-instance deployments and tests; instances of a service do not share its state.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/acronis/go-throttlekit/config"
	"github.com/acronis/go-throttlekit/lrucache"
	"github.com/acronis/go-throttlekit/throttle"
)

// DefaultMaxKeys is the default number of histories kept in memory.
const DefaultMaxKeys = 100000

const cfgKeyMaxKeys = "maxKeys"

// Config configures Store.
type Config struct {
	// MaxKeys bounds the number of histories. The least recently used one is dropped when it is exceeded,
	// which forgets the requests of that caller.
	MaxKeys int `mapstructure:"maxKeys" yaml:"maxKeys" json:"maxKeys"`
}

var _ config.Config = (*Config)(nil)

// SetProviderDefaults implements config.Config.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyMaxKeys, DefaultMaxKeys)
}

// Set implements config.Config.
func (c *Config) Set(dp config.DataProvider) (err error) {
	if c.MaxKeys, err = dp.GetInt(cfgKeyMaxKeys); err != nil {
		return err
	}
	if c.MaxKeys <= 0 {
		return dp.WrapKeyErr(cfgKeyMaxKeys, fmt.Errorf("should be > 0"))
	}
	return nil
}

// Option configures Store.
type Option func(*options)

type options struct {
	clock func() time.Time
}

// WithClock sets the time source used for expiration.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// Store keeps histories in an LRU cache with per-key expiration.
type Store struct {
	cache *lrucache.LRUCache[string, throttle.History]

	// updateMu makes Update atomic with respect to other Update calls.
	updateMu sync.Mutex
}

var _ throttle.AtomicWindowStore = (*Store)(nil)

// New creates a Store. A nil metricsCollector disables cache metrics.
func New(cfg Config, metricsCollector lrucache.MetricsCollector, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.MaxKeys == 0 {
		cfg.MaxKeys = DefaultMaxKeys
	}
	cache, err := lrucache.NewWithOpts[string, throttle.History](cfg.MaxKeys, metricsCollector, lrucache.Options{Clock: o.clock})
	if err != nil {
		return nil, fmt.Errorf("create lru cache for window store: %w", err)
	}
	return &Store{cache: cache}, nil
}

// Get implements throttle.WindowStore.
func (s *Store) Get(ctx context.Context, key string) (throttle.History, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	h, ok := s.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return h.Clone(), true, nil
}

// Set implements throttle.WindowStore.
func (s *Store) Set(ctx context.Context, key string, h throttle.History, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	s.cache.AddWithTTL(key, h.Clone(), ttl)
	return nil
}

// Update implements throttle.AtomicWindowStore.
// All updates of the store are serialized; plain Get and Set calls are not blocked by it.
func (s *Store) Update(ctx context.Context, key string, ttl time.Duration, fn throttle.UpdateFunc) error {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	h, _, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	next, write := fn(h)
	if !write {
		return nil
	}
	return s.Set(ctx, key, next, ttl)
}

// TTL returns the remaining lifetime of key.
func (s *Store) TTL(key string) (time.Duration, bool) {
	return s.cache.TTL(key)
}

// Len returns the number of stored histories, expired ones included until they are evicted or read.
func (s *Store) Len() int {
	return s.cache.Len()
}

/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package redisstore provides a throttle.WindowStore on Redis, shared by all instances of a service.
//
// A history is stored as a JSON array of Unix timestamps under the window key with an expiration
// equal to the window length. Read-decide-write cycles use WATCH/MULTI/EXEC and are retried on conflict.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acronis/go-throttlekit/log"
	"github.com/acronis/go-throttlekit/retry"
	"github.com/acronis/go-throttlekit/throttle"
)

const pingTimeout = 5 * time.Second

// ErrUpdateConflict is returned by Update when concurrent writers kept changing the key through all retries.
var ErrUpdateConflict = errors.New("optimistic update conflict")

// Store is a Redis-backed throttle.AtomicWindowStore.
type Store struct {
	client       redis.UniversalClient
	cfg          Config
	updatePolicy retry.Policy
	logger       log.FieldLogger
}

var _ throttle.AtomicWindowStore = (*Store)(nil)

// New connects to Redis and checks the connection with PING.
func New(cfg Config, logger log.FieldLogger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	store := NewWithClient(client, cfg, logger)
	store.logger.Info("connected to redis window store", log.String("addr", cfg.Addr), log.Int("db", cfg.DB))
	return store, nil
}

// NewWithClient creates a Store over an existing client. The Store takes ownership of the client.
func NewWithClient(client redis.UniversalClient, cfg Config, logger log.FieldLogger) *Store {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &Store{
		client:       client,
		cfg:          cfg,
		updatePolicy: retry.NewConstantBackoffPolicy(cfg.UpdateRetryInterval, cfg.UpdateMaxRetries),
		logger:       logger,
	}
}

// Get implements throttle.WindowStore.
func (s *Store) Get(ctx context.Context, key string) (throttle.History, bool, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return readHistory(ctx, s.client, s.redisKey(key))
}

// Set implements throttle.WindowStore.
func (s *Store) Set(ctx context.Context, key string, h throttle.History, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.client.Set(ctx, s.redisKey(key), data, ttl).Err()
}

// Update implements throttle.AtomicWindowStore.
// The key is watched while fn decides, and the write is discarded by Redis if another client changed the key
// in the meantime; such conflicts are retried according to UpdateMaxRetries and UpdateRetryInterval.
func (s *Store) Update(ctx context.Context, key string, ttl time.Duration, fn throttle.UpdateFunc) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	redisKey := s.redisKey(key)
	notify := func(err error, next time.Duration) {
		s.logger.Debug("window update conflict, retrying", log.String("key", redisKey), log.Duration("backoff", next))
	}
	err := retry.DoWithRetry(ctx, s.updatePolicy, isConflict, notify, func(ctx context.Context) error {
		opCtx, cancel := s.opContext(ctx)
		defer cancel()
		return s.client.Watch(opCtx, func(tx *redis.Tx) error {
			h, _, err := readHistory(opCtx, tx, redisKey)
			if err != nil {
				return err
			}
			next, write := fn(h)
			if !write {
				return nil
			}
			data, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("encode history: %w", err)
			}
			_, err = tx.TxPipelined(opCtx, func(pipe redis.Pipeliner) error {
				pipe.Set(opCtx, redisKey, data, ttl)
				return nil
			})
			return err
		}, redisKey)
	})
	if isConflict(err) {
		return fmt.Errorf("%w on %q after %d retries", ErrUpdateConflict, redisKey, s.cfg.UpdateMaxRetries)
	}
	return err
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) redisKey(key string) string {
	return s.cfg.KeyPrefix + key
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OperationTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.OperationTimeout)
}

func isConflict(err error) bool {
	return errors.Is(err, redis.TxFailedErr)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readHistory(ctx context.Context, g getter, key string) (throttle.History, bool, error) {
	data, err := g.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var h throttle.History
	if err = json.Unmarshal(data, &h); err != nil {
		return nil, false, fmt.Errorf("decode history of %q: %w", key, err)
	}
	return h, true, nil
}

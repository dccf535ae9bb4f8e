/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

type cacheEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time // zero means no expiration
}

func (e *cacheEntry[K, V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// LRUCache is a bounded cache that evicts the least recently used entry when full.
// Expired entries are dropped lazily, on access.
type LRUCache[K comparable, V any] struct {
	maxEntries int
	defaultTTL time.Duration
	now        func() time.Time

	mu      sync.Mutex
	lruList *list.List
	entries map[K]*list.Element

	metrics MetricsCollector
}

// Options configures LRUCache.
type Options struct {
	// DefaultTTL is applied by Add. Zero means entries never expire.
	DefaultTTL time.Duration

	// Clock returns the current time. time.Now is used when nil.
	Clock func() time.Time
}

// New creates an LRUCache holding at most maxEntries entries.
// A nil metricsCollector disables metrics.
func New[K comparable, V any](maxEntries int, metricsCollector MetricsCollector) (*LRUCache[K, V], error) {
	return NewWithOpts[K, V](maxEntries, metricsCollector, Options{})
}

// NewWithOpts is New with additional options.
func NewWithOpts[K comparable, V any](maxEntries int, metricsCollector MetricsCollector, opts Options) (*LRUCache[K, V], error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("maxEntries must be greater than 0, got %d", maxEntries)
	}
	if opts.DefaultTTL < 0 {
		return nil, fmt.Errorf("defaultTTL must be greater or equal to 0 (no expiration)")
	}
	if metricsCollector == nil {
		metricsCollector = disabledMetrics{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &LRUCache[K, V]{
		maxEntries: maxEntries,
		defaultTTL: opts.DefaultTTL,
		now:        opts.Clock,
		lruList:    list.New(),
		entries:    make(map[K]*list.Element),
		metrics:    metricsCollector,
	}, nil
}

// Get returns the live value stored under key.
func (c *LRUCache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

// TTL returns how long the entry under key stays alive.
// ok is false for a missing or expired key; ttl is zero for an entry that never expires.
func (c *LRUCache[K, V]) TTL(key K) (ttl time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, hit := c.entries[key]
	if !hit {
		return 0, false
	}
	entry := elem.Value.(*cacheEntry[K, V])
	now := c.now()
	if entry.expired(now) {
		return 0, false
	}
	if entry.expiresAt.IsZero() {
		return 0, true
	}
	return entry.expiresAt.Sub(now), true
}

// Add stores value under key with the default TTL.
func (c *LRUCache[K, V]) Add(key K, value V) {
	c.AddWithTTL(key, value, c.defaultTTL)
}

// AddWithTTL stores value under key; the entry expires after ttl (never, if ttl <= 0).
// An existing entry is replaced together with its expiration.
func (c *LRUCache[K, V]) AddWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	if elem, ok := c.entries[key]; ok {
		elem.Value = &cacheEntry[K, V]{key: key, value: value, expiresAt: expiresAt}
		c.lruList.MoveToFront(elem)
		return
	}

	c.entries[key] = c.lruList.PushFront(&cacheEntry[K, V]{key: key, value: value, expiresAt: expiresAt})
	if len(c.entries) > c.maxEntries {
		if back := c.lruList.Back(); back != nil {
			c.removeElement(back)
			c.metrics.AddEvictions(1)
		}
	}
	c.metrics.SetAmount(len(c.entries))
}

// Remove deletes the entry under key and reports whether it was present.
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	c.metrics.SetAmount(len(c.entries))
	return true
}

// Purge drops all entries. Dropped entries are not counted as evictions.
func (c *LRUCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*list.Element)
	c.lruList.Init()
	c.metrics.SetAmount(0)
}

// Len returns the number of entries, including expired ones not yet dropped.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRUCache[K, V]) get(key K) (value V, ok bool) {
	elem, hit := c.entries[key]
	if !hit {
		c.metrics.IncMisses()
		return value, false
	}
	entry := elem.Value.(*cacheEntry[K, V])
	if entry.expired(c.now()) {
		c.removeElement(elem)
		c.metrics.SetAmount(len(c.entries))
		c.metrics.IncMisses()
		return value, false
	}
	c.lruList.MoveToFront(elem)
	c.metrics.IncHits()
	return entry.value, true
}

func (c *LRUCache[K, V]) removeElement(elem *list.Element) {
	c.lruList.Remove(elem)
	delete(c.entries, elem.Value.(*cacheEntry[K, V]).key)
}

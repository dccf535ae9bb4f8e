/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package windowstore selects and creates the throttle.WindowStore configured for a service.
package windowstore

import (
	"fmt"
	"strings"

	"github.com/acronis/go-throttlekit/config"
	"github.com/acronis/go-throttlekit/log"
	"github.com/acronis/go-throttlekit/lrucache"
	"github.com/acronis/go-throttlekit/throttle"
	"github.com/acronis/go-throttlekit/windowstore/memstore"
	"github.com/acronis/go-throttlekit/windowstore/redisstore"
)

// Type is a kind of window store.
type Type string

// Window store types.
const (
	TypeMemory Type = "memory"
	TypeRedis  Type = "redis"
)

const (
	cfgDefaultKeyPrefix = "store"
	cfgKeyType          = "type"
	cfgKeyMemory        = "memory"
	cfgKeyRedis         = "redis"
)

// Config chooses the window store and holds the settings of each kind.
type Config struct {
	Type   Type              `mapstructure:"type" yaml:"type" json:"type"`
	Memory memstore.Config   `mapstructure:"memory" yaml:"memory" json:"memory"`
	Redis  redisstore.Config `mapstructure:"redis" yaml:"redis" json:"redis"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates Config read under the "store" key.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewConfigWithKeyPrefix creates Config read under the given key.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// KeyPrefix implements config.KeyPrefixProvider.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults implements config.Config.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyType, string(TypeMemory))
	c.Memory.SetProviderDefaults(config.NewKeyPrefixedDataProvider(dp, cfgKeyMemory))
	c.Redis.SetProviderDefaults(config.NewKeyPrefixedDataProvider(dp, cfgKeyRedis))
}

// Set implements config.Config. Only the settings of the selected kind are read and validated.
func (c *Config) Set(dp config.DataProvider) error {
	typ, err := dp.GetStringFromSet(cfgKeyType, []string{string(TypeMemory), string(TypeRedis)}, true)
	if err != nil {
		return err
	}
	c.Type = Type(strings.ToLower(typ))
	switch c.Type {
	case TypeRedis:
		return c.Redis.Set(config.NewKeyPrefixedDataProvider(dp, cfgKeyRedis))
	default:
		return c.Memory.Set(config.NewKeyPrefixedDataProvider(dp, cfgKeyMemory))
	}
}

// Options holds optional collaborators of New.
type Options struct {
	Logger log.FieldLogger
	// CacheMetrics collects the LRU cache statistics of the memory store.
	CacheMetrics lrucache.MetricsCollector
}

// New creates the window store selected by cfg.
// The returned function releases the store's resources and must be called on shutdown.
func New(cfg *Config, opts Options) (throttle.WindowStore, func() error, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	switch cfg.Type {
	case TypeMemory, "":
		store, err := memstore.New(cfg.Memory, opts.CacheMetrics)
		if err != nil {
			return nil, nil, err
		}
		logger.Warn("using in-memory window store, throttling state is not shared between instances",
			log.Int("max_keys", cfg.Memory.MaxKeys))
		return store, func() error { return nil }, nil
	case TypeRedis:
		store, err := redisstore.New(cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown window store type %q", cfg.Type)
	}
}

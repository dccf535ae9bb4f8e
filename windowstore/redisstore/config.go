/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package redisstore

import (
	"fmt"
	"time"

	"github.com/acronis/go-throttlekit/config"
)

// Default values.
const (
	DefaultAddr                = "localhost:6379"
	DefaultOperationTimeout    = 500 * time.Millisecond
	DefaultUpdateMaxRetries    = 10
	DefaultUpdateRetryInterval = 5 * time.Millisecond
)

const (
	cfgKeyAddr                = "addr"
	cfgKeyPassword            = "password"
	cfgKeyDB                  = "db"
	cfgKeyKeyPrefix           = "keyPrefix"
	cfgKeyOperationTimeout    = "operationTimeout"
	cfgKeyUpdateMaxRetries    = "updateMaxRetries"
	cfgKeyUpdateRetryInterval = "updateRetryInterval"
)

// Config configures the Redis window store.
type Config struct {
	Addr     string `mapstructure:"addr" yaml:"addr" json:"addr"`
	Password string `mapstructure:"password" yaml:"password" json:"password"`
	DB       int    `mapstructure:"db" yaml:"db" json:"db"`

	// KeyPrefix is prepended to every window key, e.g. to separate services sharing one Redis.
	KeyPrefix string `mapstructure:"keyPrefix" yaml:"keyPrefix" json:"keyPrefix"`

	// OperationTimeout bounds every Redis round trip. Zero disables the bound.
	OperationTimeout time.Duration `mapstructure:"operationTimeout" yaml:"operationTimeout" json:"operationTimeout"`

	// UpdateMaxRetries is how many times a conflicting optimistic update is retried. Zero means no retries.
	UpdateMaxRetries int `mapstructure:"updateMaxRetries" yaml:"updateMaxRetries" json:"updateMaxRetries"`

	// UpdateRetryInterval is the pause between such retries.
	UpdateRetryInterval time.Duration `mapstructure:"updateRetryInterval" yaml:"updateRetryInterval" json:"updateRetryInterval"`
}

var _ config.Config = (*Config)(nil)

// NewDefaultConfig returns Config with default values.
func NewDefaultConfig() Config {
	return Config{
		Addr:                DefaultAddr,
		OperationTimeout:    DefaultOperationTimeout,
		UpdateMaxRetries:    DefaultUpdateMaxRetries,
		UpdateRetryInterval: DefaultUpdateRetryInterval,
	}
}

// SetProviderDefaults implements config.Config.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyAddr, DefaultAddr)
	dp.SetDefault(cfgKeyDB, 0)
	dp.SetDefault(cfgKeyOperationTimeout, DefaultOperationTimeout)
	dp.SetDefault(cfgKeyUpdateMaxRetries, DefaultUpdateMaxRetries)
	dp.SetDefault(cfgKeyUpdateRetryInterval, DefaultUpdateRetryInterval)
}

// Set implements config.Config.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Addr, err = dp.GetString(cfgKeyAddr); err != nil {
		return err
	}
	if c.Addr == "" {
		return dp.WrapKeyErr(cfgKeyAddr, fmt.Errorf("cannot be empty"))
	}
	if c.Password, err = dp.GetString(cfgKeyPassword); err != nil {
		return err
	}
	if c.DB, err = dp.GetInt(cfgKeyDB); err != nil {
		return err
	}
	if c.DB < 0 {
		return dp.WrapKeyErr(cfgKeyDB, fmt.Errorf("should be >= 0"))
	}
	if c.KeyPrefix, err = dp.GetString(cfgKeyKeyPrefix); err != nil {
		return err
	}
	if c.OperationTimeout, err = dp.GetDuration(cfgKeyOperationTimeout); err != nil {
		return err
	}
	if c.OperationTimeout < 0 {
		return dp.WrapKeyErr(cfgKeyOperationTimeout, fmt.Errorf("should be >= 0"))
	}
	if c.UpdateMaxRetries, err = dp.GetInt(cfgKeyUpdateMaxRetries); err != nil {
		return err
	}
	if c.UpdateMaxRetries < 0 {
		return dp.WrapKeyErr(cfgKeyUpdateMaxRetries, fmt.Errorf("should be >= 0"))
	}
	if c.UpdateRetryInterval, err = dp.GetDuration(cfgKeyUpdateRetryInterval); err != nil {
		return err
	}
	if c.UpdateRetryInterval < 0 {
		return dp.WrapKeyErr(cfgKeyUpdateRetryInterval, fmt.Errorf("should be >= 0"))
	}
	return nil
}

/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/acronis/go-throttlekit/config"
	"github.com/acronis/go-throttlekit/internal/ratelimit"
	"github.com/acronis/go-throttlekit/throttle"
)

const cfgDefaultKeyPrefix = "throttle"

const (
	cfgKeyStoreFailurePolicy = "storeFailurePolicy"
	cfgKeyHandlers           = "handlers"
)

// Config holds throttling declarations of handlers loaded from a configuration file:
//
//	throttle:
//	  storeFailurePolicy: fail_closed
//	  handlers:
//	    listItems:
//	      rate: 100/m
//	    getItem:
//	      rate: 10/s
//	      scope: items
//
// Handler names are matched case-insensitively and must not contain dots.
type Config struct {
	StoreFailurePolicy StoreFailurePolicy              `mapstructure:"storeFailurePolicy" yaml:"storeFailurePolicy" json:"storeFailurePolicy"`
	Handlers           map[string]throttle.Declaration `mapstructure:"handlers" yaml:"handlers" json:"handlers"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config that reads its values under the "throttle" key.
func NewConfig() *Config {
	return &Config{keyPrefix: cfgDefaultKeyPrefix}
}

// NewConfigWithKeyPrefix creates a new instance of the Config with the given key prefix.
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

// SetProviderDefaults implements config.Config. There are no defaults: the store failure policy is a
// deliberate operator decision.
func (c *Config) SetProviderDefaults(_ config.DataProvider) {}

// Set implements config.Config.
func (c *Config) Set(dp config.DataProvider) error {
	policyStr, err := dp.GetString(cfgKeyStoreFailurePolicy)
	if err != nil {
		return err
	}
	if strings.TrimSpace(policyStr) == "" {
		return dp.WrapKeyErr(cfgKeyStoreFailurePolicy, fmt.Errorf("must be set explicitly to %q or %q",
			StoreFailurePolicyFailOpen, StoreFailurePolicyFailClosed))
	}
	if c.StoreFailurePolicy, err = ratelimit.ParseStoreFailurePolicy(policyStr); err != nil {
		return dp.WrapKeyErr(cfgKeyStoreFailurePolicy, err)
	}

	c.Handlers = nil
	if dp.IsSet(cfgKeyHandlers) {
		if err = dp.UnmarshalKey(cfgKeyHandlers, &c.Handlers, config.WithDecodeHooks(trimSpaceStringsHookFunc())); err != nil {
			return err
		}
	}
	for name, decl := range c.Handlers {
		if _, err = throttle.Bind(decl, name); err != nil {
			return dp.WrapKeyErr(cfgKeyHandlers+"."+name, err)
		}
	}
	return nil
}

// Declaration returns the declaration of the handler, matching its name case-insensitively.
func (c *Config) Declaration(handlerName string) (throttle.Declaration, bool) {
	if decl, ok := c.Handlers[handlerName]; ok {
		return decl, true
	}
	for name, decl := range c.Handlers {
		if strings.EqualFold(name, handlerName) {
			return decl, true
		}
	}
	return throttle.Declaration{}, false
}

func trimSpaceStringsHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Kind, t reflect.Kind, data interface{}) (interface{}, error) {
		s, ok := data.(string)
		if !ok || f != reflect.String || t != reflect.String {
			return data, nil
		}
		return strings.TrimSpace(s), nil
	}
}

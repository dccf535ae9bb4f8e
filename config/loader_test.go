/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type storeTestConfig struct {
	Type    string
	Timeout time.Duration
	MaxSize uint64
	Retries int
}

func (c *storeTestConfig) KeyPrefix() string { return "store" }

func (c *storeTestConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("type", "memory")
	dp.SetDefault("timeout", "500ms")
	dp.SetDefault("retries", 10)
}

func (c *storeTestConfig) Set(dp DataProvider) (err error) {
	if c.Type, err = dp.GetStringFromSet("type", []string{"memory", "redis"}, true); err != nil {
		return err
	}
	if c.Timeout, err = dp.GetDuration("timeout"); err != nil {
		return err
	}
	if c.MaxSize, err = dp.GetSizeInBytes("maxSize"); err != nil {
		return err
	}
	if c.Retries, err = dp.GetInt("retries"); err != nil {
		return err
	}
	if c.Retries < 0 {
		return dp.WrapKeyErr("retries", errors.New("should be >= 0"))
	}
	return nil
}

func TestLoader_LoadFromReader(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := &storeTestConfig{}
		require.NoError(t, NewDefaultLoader("").LoadFromReader(bytes.NewBufferString("{}"), DataTypeJSON, cfg))
		require.Equal(t, &storeTestConfig{Type: "memory", Timeout: 500 * time.Millisecond, Retries: 10}, cfg)
	})

	t.Run("yaml values", func(t *testing.T) {
		yamlData := `
store:
  type: Redis
  timeout: 2s
  maxSize: 16Mi
  retries: 3
`
		cfg := &storeTestConfig{}
		require.NoError(t, NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(yamlData), DataTypeYAML, cfg))
		require.Equal(t, "Redis", cfg.Type)
		require.Equal(t, 2*time.Second, cfg.Timeout)
		require.EqualValues(t, 16*1024*1024, cfg.MaxSize)
		require.Equal(t, 3, cfg.Retries)
	})

	t.Run("unknown value in set", func(t *testing.T) {
		err := NewDefaultLoader("").LoadFromReader(bytes.NewBufferString("store:\n  type: etcd\n"), DataTypeYAML, &storeTestConfig{})
		require.EqualError(t, err, `store.type: unknown value "etcd", should be one of [memory redis]`)
	})

	t.Run("validation error is wrapped with full key", func(t *testing.T) {
		err := NewDefaultLoader("").LoadFromReader(bytes.NewBufferString("store:\n  retries: -1\n"), DataTypeYAML, &storeTestConfig{})
		require.EqualError(t, err, "store.retries: should be >= 0")
	})
}

func TestLoader_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store": {"type": "redis", "retries": 5}}`), 0o600))

	cfg := &storeTestConfig{}
	require.NoError(t, NewDefaultLoader("").LoadFromFile(path, DataTypeJSON, cfg))
	require.Equal(t, "redis", cfg.Type)
	require.Equal(t, 5, cfg.Retries)
}

func TestLoader_EnvVars(t *testing.T) {
	t.Setenv("THROTTLEKITTEST_STORE_TYPE", "redis")
	t.Setenv("THROTTLEKITTEST_STORE_TIMEOUT", "1m")

	cfg := &storeTestConfig{}
	require.NoError(t, NewDefaultLoader("throttlekittest").Load(cfg))
	require.Equal(t, "redis", cfg.Type)
	require.Equal(t, time.Minute, cfg.Timeout)
}

type handlerEntry struct {
	Rate    string        `mapstructure:"rate"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func TestViperAdapter_UnmarshalKeyWithDecodeHooks(t *testing.T) {
	va := NewViperAdapter()
	require.NoError(t, va.SetFromReader(bytes.NewBufferString(`
handlers:
  orders:
    rate: 5/s
    timeout: 250ms
`), DataTypeYAML))

	var got map[string]handlerEntry
	require.NoError(t, NewKeyPrefixedDataProvider(va, "").UnmarshalKey("handlers", &got, WithDecodeHooks()))
	require.Equal(t, map[string]handlerEntry{"orders": {Rate: "5/s", Timeout: 250 * time.Millisecond}}, got)
}

func TestKeyPrefixedDataProvider_WrapKeyErr(t *testing.T) {
	va := NewViperAdapter()
	require.NoError(t, va.SetFromReader(bytes.NewBufferString("store:\n  redis:\n    type: etcd\n"), DataTypeYAML))
	nested := NewKeyPrefixedDataProvider(NewKeyPrefixedDataProvider(va, "store"), "redis")

	require.EqualError(t, nested.WrapKeyErr("db", errors.New("should be >= 0")), "store.redis.db: should be >= 0")

	_, err := nested.GetStringFromSet("type", []string{"memory", "redis"}, true)
	require.EqualError(t, err, `store.redis.type: unknown value "etcd", should be one of [memory redis]`)
}

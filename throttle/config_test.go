/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	t.Run("not throttled", func(t *testing.T) {
		cfg, err := Bind(Declaration{}, "orders.List")
		require.NoError(t, err)
		require.Nil(t, cfg)
	})

	t.Run("scope defaults to handler name", func(t *testing.T) {
		cfg, err := Bind(Declaration{Rate: MustParseRate("5/s")}, "orders.List")
		require.NoError(t, err)
		require.Equal(t, &Config{Rate: RateSpec{Limit: 5, Window: time.Second}, Scope: "orders.List"}, cfg)
	})

	t.Run("shared scope", func(t *testing.T) {
		first := MustBind(Declaration{Rate: MustParseRate("5/s"), Scope: "orders"}, "orders.List")
		second := MustBind(Declaration{Rate: MustParseRate("5/s"), Scope: "orders"}, "orders.Export")
		require.Equal(t, first.Scope, second.Scope)
	})

	t.Run("invalid rate", func(t *testing.T) {
		_, err := Bind(Declaration{Rate: RateSpec{Limit: -1, Window: time.Second}}, "orders.List")
		require.ErrorIs(t, err, ErrInvalidRateFormat)
		require.Panics(t, func() { MustBind(Declaration{Rate: RateSpec{Limit: 5}}, "orders.List") })
	})

	t.Run("no scope and no handler name", func(t *testing.T) {
		_, err := Bind(Declaration{Rate: MustParseRate("5/s")}, "")
		require.Error(t, err)
	})
}

func TestWindowKey(t *testing.T) {
	require.Equal(t, "throttle:orders.List:42", WindowKey("orders.List", "42"))
	require.Equal(t, WindowKey("a", "b"), WindowKey("a", "b"))
	require.NotEqual(t, WindowKey("a", "b"), WindowKey("b", "b"))
}

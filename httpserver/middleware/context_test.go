/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-throttlekit/log"
)

func TestGetLoggerFromContext(t *testing.T) {
	t.Run("empty logger", func(t *testing.T) {
		require.Nil(t, GetLoggerFromContext(context.Background()))
	})
	t.Run("non empty logger", func(t *testing.T) {
		logger := log.NewDisabledLogger()
		ctx := NewContextWithLogger(context.Background(), logger)
		require.Equal(t, logger, GetLoggerFromContext(ctx))
	})
}

func TestGetRequestIDFromContext(t *testing.T) {
	require.Equal(t, "", GetRequestIDFromContext(context.Background()))
	ctx := NewContextWithRequestID(context.Background(), "request-id")
	require.Equal(t, "request-id", GetRequestIDFromContext(ctx))
}

func TestGetPrincipalIDFromContext(t *testing.T) {
	require.Equal(t, "", GetPrincipalIDFromContext(context.Background()))
	ctx := NewContextWithPrincipalID(context.Background(), "42")
	require.Equal(t, "42", GetPrincipalIDFromContext(ctx))
	require.Equal(t, "", GetRequestIDFromContext(ctx))
}

/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-throttlekit/log"
)

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.With(log.String("scope", "orders")).Warn("request throttled", log.Int("limit", 5))
	rec.Infof("admitted %d", 3)

	require.Len(t, rec.Entries(), 2)

	entry, found := rec.FindEntry("request throttled")
	require.True(t, found)
	require.Equal(t, log.LevelWarn, entry.Level)
	scope, found := entry.FindField("scope")
	require.True(t, found)
	require.Equal(t, "orders", string(scope.Bytes))
	limit, found := entry.FindField("limit")
	require.True(t, found)
	require.EqualValues(t, 5, limit.Int)

	_, found = rec.FindEntry("missing")
	require.False(t, found)

	rec.WithLevel(log.LevelError).Info("dropped")
	_, found = rec.FindEntry("dropped")
	require.False(t, found)

	rec.Reset()
	require.Empty(t, rec.Entries())
}

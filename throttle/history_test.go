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

func TestHistory_Prune(t *testing.T) {
	tests := []struct {
		name string
		h    History
		now  float64
		want History
	}{
		{name: "empty", h: nil, now: 10, want: History{}},
		{name: "all in window", h: History{9.5, 9.2}, now: 10, want: History{9.5, 9.2}},
		{name: "boundary is expired", h: History{9.5, 9}, now: 10, want: History{9.5}},
		{name: "all expired", h: History{8, 7}, now: 10, want: History{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.h.Prune(tt.now, time.Second)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				require.Equal(t, tt.want[i], got[i])
			}
		})
	}
}

func TestHistory_Prepend(t *testing.T) {
	h := History{2, 1}
	next := h.Prepend(3)
	require.Equal(t, History{3, 2, 1}, next)
	require.Equal(t, History{2, 1}, h)

	require.Equal(t, History{1}, History(nil).Prepend(1))
}

func TestTimestamp(t *testing.T) {
	require.Equal(t, 1000.0, Timestamp(time.Unix(1000, 0)))
	require.InDelta(t, 1000.25, Timestamp(time.Unix(1000, int64(250*time.Millisecond))), 1e-9)
}

/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import "time"

// History is a log of admitted requests: Unix timestamps in seconds, newest first.
type History []float64

// Timestamp converts t to the representation used in History.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Prune returns h without the timestamps that are out of the window ending at now.
// A timestamp exactly window before now is already out.
func (h History) Prune(now float64, window time.Duration) History {
	cutoff := now - window.Seconds()
	n := len(h)
	for n > 0 && h[n-1] <= cutoff {
		n--
	}
	return h[:n]
}

// Prepend returns a new History with now in front of h. h itself is not modified.
func (h History) Prepend(now float64) History {
	next := make(History, 0, len(h)+1)
	next = append(next, now)
	return append(next, h...)
}

// Clone returns a copy of h.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	return append(History(nil), h...)
}

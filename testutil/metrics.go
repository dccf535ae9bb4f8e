/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertCounterValue asserts that the counter (or a single labeled child of a vector) has the given value.
func AssertCounterValue(t assert.TestingT, counter prometheus.Collector, want int) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return assert.Equal(t, want, int(promtestutil.ToFloat64(counter)))
}

// RequireCounterValue is AssertCounterValue that stops the test on failure.
func RequireCounterValue(t require.TestingT, counter prometheus.Collector, want int) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !AssertCounterValue(t, counter, want) {
		t.FailNow()
	}
}

// RequireLabeledCounterValue checks the child of vec selected by label values.
func RequireLabeledCounterValue(t require.TestingT, vec *prometheus.CounterVec, want int, labelValues ...string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	RequireCounterValue(t, vec.WithLabelValues(labelValues...), want)
}

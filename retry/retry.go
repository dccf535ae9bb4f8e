/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package retry runs an operation repeatedly according to a backoff policy.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IsRetryable tells whether an error is worth another attempt.
type IsRetryable func(error) bool

// RetryableFunc is a single attempt of an operation.
type RetryableFunc func(ctx context.Context) error

// Policy produces a fresh backoff sequence for each DoWithRetry call.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// PolicyFunc adapts an ordinary function to Policy.
type PolicyFunc func() backoff.BackOff

// NewBackOff implements Policy.
func (f PolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// DoWithRetry calls fn until it succeeds, returns a non-retryable error, the policy gives up or ctx is done.
// A nil isRetryable treats every error as retryable. notify, if not nil, is called before each retry.
// The error of the last attempt is returned.
func DoWithRetry(ctx context.Context, p Policy, isRetryable IsRetryable, notify backoff.Notify, fn RetryableFunc) error {
	bctx := backoff.WithContext(p.NewBackOff(), ctx)
	return backoff.RetryNotify(func() error {
		err := fn(bctx.Context())
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bctx, notify)
}

// ConstantBackoffPolicy waits the same interval between attempts.
// It retries at most maxRetries times: zero disables retries, a negative value removes the bound.
type ConstantBackoffPolicy struct {
	interval   time.Duration
	maxRetries int
}

// NewConstantBackoffPolicy creates a ConstantBackoffPolicy.
func NewConstantBackoffPolicy(interval time.Duration, maxRetries int) ConstantBackoffPolicy {
	return ConstantBackoffPolicy{interval: interval, maxRetries: maxRetries}
}

// NewBackOff implements Policy.
func (p ConstantBackoffPolicy) NewBackOff() backoff.BackOff {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.interval)
	if p.maxRetries >= 0 {
		b = backoff.WithMaxRetries(b, uint64(p.maxRetries))
	}
	b.Reset()
	return b
}

/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRateFormat is wrapped by errors of ParseRate.
var ErrInvalidRateFormat = errors.New("invalid rate format")

// ErrStoreUnavailable matches every *StoreUnavailableError via errors.Is.
var ErrStoreUnavailable = errors.New("window store unavailable")

// ThrottledError is returned by Engine.Check when a request exceeds the rate of its scope.
type ThrottledError struct {
	Scope      string
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("request throttled in scope %q, retry after %s", e.Scope, e.RetryAfter)
}

// IsThrottled extracts *ThrottledError from the error chain.
func IsThrottled(err error) (*ThrottledError, bool) {
	var throttledErr *ThrottledError
	if errors.As(err, &throttledErr) {
		return throttledErr, true
	}
	return nil, false
}

// Window store operations, as reported in StoreUnavailableError.Op.
const (
	StoreOpGet    = "get"
	StoreOpSet    = "set"
	StoreOpUpdate = "update"
)

// StoreUnavailableError reports a failed window store operation.
// The request outcome is unknown in this case: it is neither admitted nor rejected.
type StoreUnavailableError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("window store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStoreUnavailable) true.
func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

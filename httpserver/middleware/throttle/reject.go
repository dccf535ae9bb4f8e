/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/acronis/go-throttlekit/log"
	"github.com/acronis/go-throttlekit/restapi"
)

// ScopeLogFieldName is a logged field that contains the throttling scope.
const ScopeLogFieldName = "throttle_scope"

// RejectParams describes a throttled request.
type RejectParams struct {
	Scope      string
	RetryAfter time.Duration
	ErrDomain  string
}

// RejectFunc answers a throttled request.
type RejectFunc func(rw http.ResponseWriter, r *http.Request, params RejectParams, logger log.FieldLogger)

// ErrorParams describes a request whose admission could not be decided.
type ErrorParams struct {
	Scope     string
	ErrDomain string
}

// ErrorFunc answers a request whose admission could not be decided.
type ErrorFunc func(rw http.ResponseWriter, r *http.Request, params ErrorParams, err error, logger log.FieldLogger)

// RejectHandlers maps scopes to the functions answering their throttled requests.
type RejectHandlers map[string]RejectFunc

// Resolve returns the reject function registered for scope or DefaultReject.
func (h RejectHandlers) Resolve(scope string) RejectFunc {
	if reject := h[scope]; reject != nil {
		return reject
	}
	return DefaultReject
}

// DefaultReject responds with 429, the Retry-After header in whole seconds rounded up
// and a tooManyRequests error body.
func DefaultReject(rw http.ResponseWriter, _ *http.Request, params RejectParams, logger log.FieldLogger) {
	if logger != nil {
		logger.Warn("too many requests, request is rejected",
			log.String(ScopeLogFieldName, params.Scope), log.Duration("retry_after", params.RetryAfter))
	}
	rw.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds(params.RetryAfter)))
	restapi.RespondError(rw, http.StatusTooManyRequests,
		restapi.NewError(params.ErrDomain, restapi.ErrCodeTooManyRequests, restapi.ErrMessageTooManyRequests), logger)
}

// DefaultOnError responds with 503 and a storeUnavailable error body.
func DefaultOnError(rw http.ResponseWriter, _ *http.Request, params ErrorParams, err error, logger log.FieldLogger) {
	if logger != nil {
		logger.Error("throttling failed, request is rejected",
			log.String(ScopeLogFieldName, params.Scope), log.Error(err))
	}
	restapi.RespondError(rw, http.StatusServiceUnavailable,
		restapi.NewError(params.ErrDomain, restapi.ErrCodeStoreUnavailable, restapi.ErrMessageStoreUnavailable), logger)
}

// RetryAfterSeconds converts d into the value of the Retry-After header.
func RetryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

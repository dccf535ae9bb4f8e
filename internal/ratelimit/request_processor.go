/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/acronis/go-throttlekit/log"
	"github.com/acronis/go-throttlekit/throttle"
)

// StoreFailurePolicy says what happens to a request when the window store is unavailable.
type StoreFailurePolicy string

// Store failure policies.
const (
	// StoreFailurePolicyFailOpen executes the request without throttling it.
	StoreFailurePolicyFailOpen StoreFailurePolicy = "fail_open"
	// StoreFailurePolicyFailClosed hands the error to RequestHandler.OnError.
	StoreFailurePolicyFailClosed StoreFailurePolicy = "fail_closed"
)

// ParseStoreFailurePolicy parses a policy name, ignoring case.
func ParseStoreFailurePolicy(s string) (StoreFailurePolicy, error) {
	switch p := StoreFailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case StoreFailurePolicyFailOpen, StoreFailurePolicyFailClosed:
		return p, nil
	default:
		return "", fmt.Errorf("unknown store failure policy %q, should be one of [%s %s]",
			s, StoreFailurePolicyFailOpen, StoreFailurePolicyFailClosed)
	}
}

// Checker decides whether a request is admitted. *throttle.Engine implements it.
type Checker interface {
	Check(ctx context.Context, cfg *throttle.Config, identity string) error
}

// RequestHandler abstracts the transport-specific parts of a request.
type RequestHandler interface {
	// GetContext returns the request context.
	GetContext() context.Context

	// GetIdentity returns the identity the request is throttled by.
	GetIdentity() string

	// Execute processes the actual request.
	Execute() error

	// OnReject handles a request that exceeded the rate of its scope.
	OnReject(err *throttle.ThrottledError) error

	// OnError handles a request whose admission could not be decided.
	OnError(err error) error
}

// RequestProcessor applies throttling to requests of any transport.
type RequestProcessor struct {
	checker Checker
	policy  StoreFailurePolicy
	logger  log.FieldLogger
}

// NewRequestProcessor creates a new RequestProcessor.
// The policy has no default and must be one of the StoreFailurePolicy constants.
func NewRequestProcessor(checker Checker, policy StoreFailurePolicy, logger log.FieldLogger) (*RequestProcessor, error) {
	if checker == nil {
		return nil, errors.New("checker is required")
	}
	parsedPolicy, err := ParseStoreFailurePolicy(string(policy))
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &RequestProcessor{checker: checker, policy: parsedPolicy, logger: logger}, nil
}

// ProcessRequest throttles the request described by rh according to cfg.
// A nil cfg executes the request without consulting the checker.
func (p *RequestProcessor) ProcessRequest(cfg *throttle.Config, rh RequestHandler) error {
	if cfg == nil {
		return rh.Execute()
	}

	identity := rh.GetIdentity()
	err := p.checker.Check(rh.GetContext(), cfg, identity)
	if err == nil {
		return rh.Execute()
	}

	if throttledErr, ok := throttle.IsThrottled(err); ok {
		return rh.OnReject(throttledErr)
	}

	if errors.Is(err, throttle.ErrStoreUnavailable) && p.policy == StoreFailurePolicyFailOpen {
		p.logger.Warn("window store is unavailable, request is executed without throttling",
			log.String("scope", cfg.Scope), log.String("identity", identity), log.Error(err))
		return rh.Execute()
	}
	return rh.OnError(err)
}

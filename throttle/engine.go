/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acronis/go-throttlekit/log"
)

// AdmitResult is the outcome of Engine.Admit.
type AdmitResult struct {
	Allowed bool
	Scope   string
	Key     string
	Limit   int
	// Remaining is how many more requests fit into the window right after this one.
	Remaining int
	// RetryAfter is set for rejected requests: how long until a request could be admitted again.
	RetryAfter time.Duration
}

// EngineOption configures Engine.
type EngineOption func(e *Engine)

// WithLogger sets the logger. Nothing is logged by default.
func WithLogger(logger log.FieldLogger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(mc MetricsCollector) EngineOption {
	return func(e *Engine) {
		e.metrics = mc
	}
}

// WithClock sets the source of the current time used by Check.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine decides whether a request is admitted, keeping histories in a WindowStore.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	store   WindowStore
	logger  log.FieldLogger
	metrics MetricsCollector
	now     func() time.Time
}

// NewEngine creates an Engine on top of store.
func NewEngine(store WindowStore, opts ...EngineOption) (*Engine, error) {
	if store == nil {
		return nil, errors.New("window store is required")
	}
	e := &Engine{store: store}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.NewDisabledLogger()
	}
	if e.metrics == nil {
		e.metrics = disabledMetrics{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Check admits or rejects a request of identity at the current time.
// It returns nil when the request is admitted, *ThrottledError when it is rejected
// and *StoreUnavailableError when the decision could not be made.
func (e *Engine) Check(ctx context.Context, cfg *Config, identity string) error {
	res, err := e.Admit(ctx, cfg, identity, e.now())
	if err != nil {
		return err
	}
	if !res.Allowed {
		return &ThrottledError{Scope: res.Scope, RetryAfter: res.RetryAfter}
	}
	return nil
}

// Admit admits or rejects a request of identity made at now.
// A nil cfg admits without touching the store; a cfg with an invalid rate is an error, not a store failure.
// An admitted request is recorded and the key's TTL is reset to the window; a rejected one changes nothing.
func (e *Engine) Admit(ctx context.Context, cfg *Config, identity string, now time.Time) (AdmitResult, error) {
	if cfg == nil {
		return AdmitResult{Allowed: true}, nil
	}
	if err := cfg.Rate.Validate(); err != nil {
		return AdmitResult{Scope: cfg.Scope}, fmt.Errorf("throttle scope %q: %w", cfg.Scope, err)
	}

	key := WindowKey(cfg.Scope, identity)
	res := AdmitResult{Scope: cfg.Scope, Key: key, Limit: cfg.Rate.Limit}
	ts := Timestamp(now)
	decide := func(h History) (History, bool) {
		h = h.Prune(ts, cfg.Rate.Window)
		if len(h) >= cfg.Rate.Limit {
			res.Allowed, res.Remaining = false, 0
			res.RetryAfter = retryAfter(h, cfg.Rate, ts)
			return h, false
		}
		h = h.Prepend(ts)
		res.Allowed, res.Remaining, res.RetryAfter = true, cfg.Rate.Limit-len(h), 0
		return h, true
	}

	if op, err := e.apply(ctx, key, cfg.Rate.Window, decide); err != nil {
		e.metrics.IncStoreErrors(op)
		e.logger.Error("throttling window store operation failed",
			log.String("scope", cfg.Scope), log.String("key", key), log.String("op", op), log.Error(err))
		var storeErr *StoreUnavailableError
		if errors.As(err, &storeErr) {
			return res, err
		}
		return res, &StoreUnavailableError{Op: op, Key: key, Err: err}
	}

	if res.Allowed {
		e.metrics.IncAdmitted(cfg.Scope)
	} else {
		e.metrics.IncRejected(cfg.Scope)
		e.logger.Debug("request throttled",
			log.String("scope", cfg.Scope), log.String("identity", identity),
			log.Int("limit", cfg.Rate.Limit), log.Duration("retry_after", res.RetryAfter))
	}
	return res, nil
}

// apply runs decide against the history of key and returns the name of the failed operation on error.
func (e *Engine) apply(ctx context.Context, key string, ttl time.Duration, decide UpdateFunc) (string, error) {
	if atomicStore, ok := e.store.(AtomicWindowStore); ok {
		return StoreOpUpdate, atomicStore.Update(ctx, key, ttl, decide)
	}
	h, _, err := e.store.Get(ctx, key)
	if err != nil {
		return StoreOpGet, err
	}
	next, write := decide(h)
	if !write {
		return "", nil
	}
	return StoreOpSet, e.store.Set(ctx, key, next, ttl)
}

// retryAfter returns when the pruned history h will have room for one more request.
// That happens once its Limit-th newest entry leaves the window.
func retryAfter(h History, rate RateSpec, now float64) time.Duration {
	if rate.Limit == 0 || len(h) < rate.Limit {
		return rate.Window
	}
	leavesAt := h[rate.Limit-1] + rate.Window.Seconds()
	d := time.Duration((leavesAt - now) * float64(time.Second))
	if d < 0 {
		return 0
	}
	return d
}

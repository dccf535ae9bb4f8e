/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"context"
	"net/http"

	"github.com/acronis/go-throttlekit/httpserver/middleware"
	"github.com/acronis/go-throttlekit/internal/ratelimit"
	"github.com/acronis/go-throttlekit/log"
	"github.com/acronis/go-throttlekit/throttle"
)

// StoreFailurePolicy says what happens to a request when the window store is unavailable.
type StoreFailurePolicy = ratelimit.StoreFailurePolicy

// Store failure policies.
const (
	StoreFailurePolicyFailOpen   = ratelimit.StoreFailurePolicyFailOpen
	StoreFailurePolicyFailClosed = ratelimit.StoreFailurePolicyFailClosed
)

// Checker decides whether a request is admitted. *throttle.Engine implements it.
type Checker interface {
	Check(ctx context.Context, cfg *throttle.Config, identity string) error
}

// BinderOpts represents options for Binder.
type BinderOpts struct {
	// StoreFailurePolicy is required.
	StoreFailurePolicy StoreFailurePolicy

	// GetPrincipal returns the id of the authenticated caller.
	// By default it is taken from the request context (see middleware.NewContextWithPrincipalID).
	GetPrincipal func(r *http.Request) string

	// ErrDomain is used in error response bodies.
	ErrDomain string

	// RejectHandlers overrides DefaultReject for particular scopes.
	RejectHandlers RejectHandlers

	// OnError answers requests that could not be checked under the fail_closed policy. DefaultOnError by default.
	OnError ErrorFunc

	// Logger is used when the request context carries no logger.
	Logger log.FieldLogger
}

// Binder creates throttling middlewares for handlers of one router.
type Binder struct {
	processor *ratelimit.RequestProcessor
	opts      BinderOpts
}

// NewBinder creates a new Binder.
func NewBinder(checker Checker, opts BinderOpts) (*Binder, error) {
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.OnError == nil {
		opts.OnError = DefaultOnError
	}
	processor, err := ratelimit.NewRequestProcessor(checker, opts.StoreFailurePolicy, opts.Logger)
	if err != nil {
		return nil, err
	}
	return &Binder{processor: processor, opts: opts}, nil
}

// Middleware binds decl to the handler named handlerName.
// The declaration is validated here, once; a declaration without a rate gives a middleware that does nothing.
func (b *Binder) Middleware(handlerName string, decl throttle.Declaration) (func(next http.Handler) http.Handler, error) {
	cfg, err := throttle.Bind(decl, handlerName)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	reject := b.opts.RejectHandlers.Resolve(cfg.Scope)
	return func(next http.Handler) http.Handler {
		return &handler{next: next, cfg: cfg, reject: reject, binder: b}
	}, nil
}

// MustMiddleware is Middleware that panics on error.
func (b *Binder) MustMiddleware(handlerName string, decl throttle.Declaration) func(next http.Handler) http.Handler {
	mw, err := b.Middleware(handlerName, decl)
	if err != nil {
		panic(err)
	}
	return mw
}

// MiddlewareFromConfig binds the declaration cfg holds for handlerName.
// A handler absent from cfg is not throttled.
func (b *Binder) MiddlewareFromConfig(cfg *Config, handlerName string) (func(next http.Handler) http.Handler, error) {
	decl, ok := cfg.Declaration(handlerName)
	if !ok {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	return b.Middleware(handlerName, decl)
}

type handler struct {
	next   http.Handler
	cfg    *throttle.Config
	reject RejectFunc
	binder *Binder
}

func (h *handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())
	if logger == nil {
		logger = h.binder.opts.Logger
	}
	rh := &requestHandler{rw: rw, r: r, h: h, logger: logger}
	_ = h.binder.processor.ProcessRequest(h.cfg, rh) // Every outcome has already been written to rw.
}

type requestHandler struct {
	rw     http.ResponseWriter
	r      *http.Request
	h      *handler
	logger log.FieldLogger
}

var _ ratelimit.RequestHandler = (*requestHandler)(nil)

func (rh *requestHandler) GetContext() context.Context {
	return rh.r.Context()
}

func (rh *requestHandler) GetIdentity() string {
	return GetIdentity(rh.r, rh.h.binder.opts.GetPrincipal)
}

func (rh *requestHandler) Execute() error {
	rh.h.next.ServeHTTP(rh.rw, rh.r)
	return nil
}

func (rh *requestHandler) OnReject(err *throttle.ThrottledError) error {
	rh.h.reject(rh.rw, rh.r, RejectParams{
		Scope:      err.Scope,
		RetryAfter: err.RetryAfter,
		ErrDomain:  rh.h.binder.opts.ErrDomain,
	}, rh.logger)
	return nil
}

func (rh *requestHandler) OnError(err error) error {
	rh.h.binder.opts.OnError(rh.rw, rh.r, ErrorParams{
		Scope:     rh.h.cfg.Scope,
		ErrDomain: rh.h.binder.opts.ErrDomain,
	}, err, rh.logger)
	return nil
}

/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acronis/go-throttlekit/httpserver"
	"github.com/acronis/go-throttlekit/httpserver/middleware"
	mwthrottle "github.com/acronis/go-throttlekit/httpserver/middleware/throttle"
	"github.com/acronis/go-throttlekit/log"
	"github.com/acronis/go-throttlekit/lrucache"
	"github.com/acronis/go-throttlekit/restapi"
	"github.com/acronis/go-throttlekit/throttle"
)

const (
	errDomain        = "ThrottleDemo"
	metricsNamespace = "throttle_demo"
)

// Handler names, as they may appear under "throttle.handlers" in the config.
// Without an explicit scope each name is also the scope of its handler.
const (
	handlerSimple            = "simpleMethod"
	handlerSimplePost        = "simplePostMethod"
	handlerSameSimple        = "sameSimpleMethod"
	handlerWithoutThrottling = "withoutThrottling"
	handlerCustom            = "customHandler"
)

// defaultDeclarations are used for handlers the config says nothing about.
var defaultDeclarations = map[string]throttle.Declaration{
	handlerSimple:     {Rate: throttle.MustParseRate("5/s")},
	handlerSameSimple: {Rate: throttle.MustParseRate("5/s")},
	handlerCustom:     {Rate: throttle.MustParseRate("5/s")},
}

func customReject(rw http.ResponseWriter, _ *http.Request, params mwthrottle.RejectParams, logger log.FieldLogger) {
	if logger != nil {
		logger.Info("request rejected by custom throttle handler", log.String(mwthrottle.ScopeLogFieldName, params.Scope))
	}
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.WriteHeader(http.StatusTooManyRequests)
	_, _ = rw.Write([]byte("custom throttle exception"))
}

type routerDeps struct {
	Engine      *throttle.Engine
	Store       throttle.WindowStore
	ThrottleCfg *mwthrottle.Config
	Logger      log.FieldLogger
}

func newRouter(deps routerDeps) (chi.Router, error) {
	binder, err := mwthrottle.NewBinder(deps.Engine, mwthrottle.BinderOpts{
		StoreFailurePolicy: deps.ThrottleCfg.StoreFailurePolicy,
		ErrDomain:          errDomain,
		RejectHandlers:     mwthrottle.RejectHandlers{handlerCustom: customReject},
		Logger:             deps.Logger,
	})
	if err != nil {
		return nil, err
	}

	bind := func(handlerName string) (func(http.Handler) http.Handler, error) {
		if _, ok := deps.ThrottleCfg.Declaration(handlerName); ok {
			return binder.MiddlewareFromConfig(deps.ThrottleCfg, handlerName)
		}
		return binder.Middleware(handlerName, defaultDeclarations[handlerName])
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestIDWithOpts(middleware.RequestIDOpts{Logger: deps.Logger}),
		middleware.Recovery(errDomain),
		authenticate,
	)
	router.Method(http.MethodGet, "/healthz", httpserver.NewHealthCheckHandler(httpserver.WindowStoreHealthCheck(deps.Store)))
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, route := range []struct {
		method      string
		path        string
		handlerName string
	}{
		{http.MethodGet, "/with-throttling/", handlerSimple},
		{http.MethodPost, "/with-throttling/", handlerSimplePost},
		{http.MethodGet, "/with-throttling/same/", handlerSameSimple},
		{http.MethodGet, "/with-throttling/without-throttling/", handlerWithoutThrottling},
		{http.MethodGet, "/with-throttling/custom-handler/", handlerCustom},
	} {
		mw, bindErr := bind(route.handlerName)
		if bindErr != nil {
			return nil, bindErr
		}
		router.With(mw).MethodFunc(route.method, route.path, hello)
	}
	return router, nil
}

// authenticate treats the X-User-ID header as an already verified principal.
func authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if userID := r.Header.Get("X-User-ID"); userID != "" {
			r = r.WithContext(middleware.NewContextWithPrincipalID(r.Context(), userID))
		}
		next.ServeHTTP(rw, r)
	})
}

func hello(rw http.ResponseWriter, r *http.Request) {
	restapi.RespondJSON(rw, map[string]string{"result": "ok"}, middleware.GetLoggerFromContext(r.Context()))
}

// app is the service unit: the HTTP server plus the metrics it exposes.
type app struct {
	*httpserver.HTTPServer
	throttleMetrics *throttle.PrometheusMetrics
	cacheMetrics    *lrucache.PrometheusMetrics
}

func (a *app) MustRegisterMetrics() {
	a.throttleMetrics.MustRegister()
	a.cacheMetrics.MustRegister()
	restapi.MustInitAndRegisterMetrics(metricsNamespace)
}

func (a *app) UnregisterMetrics() {
	a.throttleMetrics.Unregister()
	a.cacheMetrics.Unregister()
	restapi.UnregisterMetrics()
}

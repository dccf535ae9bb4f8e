/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Command throttle-demo serves a few endpoints throttled by the sliding-window throttling engine.
//
//	throttle-demo -config config.yml
//
// Every setting may also come from THROTTLEDEMO_* environment variables, e.g. THROTTLEDEMO_STORE_TYPE=redis.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/acronis/go-throttlekit/config"
	"github.com/acronis/go-throttlekit/httpserver"
	mwthrottle "github.com/acronis/go-throttlekit/httpserver/middleware/throttle"
	"github.com/acronis/go-throttlekit/log"
	"github.com/acronis/go-throttlekit/lrucache"
	"github.com/acronis/go-throttlekit/service"
	"github.com/acronis/go-throttlekit/throttle"
	"github.com/acronis/go-throttlekit/windowstore"
)

const envVarsPrefix = "THROTTLEDEMO"

type appConfig struct {
	Server   *httpserver.Config
	Log      *log.Config
	Store    *windowstore.Config
	Throttle *mwthrottle.Config
}

func loadConfig(path string) (*appConfig, error) {
	cfg := &appConfig{
		Server:   httpserver.NewConfig(),
		Log:      log.NewConfig(),
		Store:    windowstore.NewConfig(),
		Throttle: mwthrottle.NewConfig(),
	}
	loader := config.NewDefaultLoader(envVarsPrefix)
	cfgs := []config.Config{cfg.Server, cfg.Log, cfg.Store, cfg.Throttle}
	var err error
	if path != "" {
		err = loader.LoadFromFile(path, config.DataTypeYAML, cfgs...)
	} else {
		err = loader.Load(cfgs...)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	logger, closeLogger := log.NewLogger(cfg.Log)
	defer closeLogger()

	cacheMetrics := lrucache.NewPrometheusMetricsWithOpts(lrucache.PrometheusMetricsOpts{Namespace: metricsNamespace})
	store, closeStore, err := windowstore.New(cfg.Store, windowstore.Options{Logger: logger, CacheMetrics: cacheMetrics})
	if err != nil {
		logger.Error("window store initialization failed", log.Error(err))
		return err
	}

	throttleMetrics := throttle.NewPrometheusMetricsWithOpts(throttle.PrometheusMetricsOpts{Namespace: metricsNamespace})
	engine, err := throttle.NewEngine(store, throttle.WithLogger(logger), throttle.WithMetrics(throttleMetrics))
	if err != nil {
		_ = closeStore()
		return err
	}

	router, err := newRouter(routerDeps{Engine: engine, Store: store, ThrottleCfg: cfg.Throttle, Logger: logger})
	if err != nil {
		_ = closeStore()
		logger.Error("router initialization failed", log.Error(err))
		return err
	}

	unit := &app{
		HTTPServer:      httpserver.New(cfg.Server, logger, router),
		throttleMetrics: throttleMetrics,
		cacheMetrics:    cacheMetrics,
	}
	logger.Info("throttle demo is starting",
		log.String("store", string(cfg.Store.Type)),
		log.String("store_failure_policy", string(cfg.Throttle.StoreFailurePolicy)))
	return service.New(logger, unit, closeStore).Start()
}

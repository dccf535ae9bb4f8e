/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package service runs a unit until an OS signal or a fatal error and releases the resources it depends on.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/acronis/go-throttlekit/log"
)

// Opts represents an options for Service.
type Opts struct {
	ShutdownSignals []os.Signal

	// Closers release resources shared by the unit (e.g. the window store connection).
	// They are called in order after the unit is stopped, even on a fatal error.
	Closers []func() error
}

// Service starts a unit, stops it gracefully by OS signal or context cancellation and then runs its closers.
type Service struct {
	Unit    Unit
	Signals chan os.Signal
	Logger  log.FieldLogger
	Opts    Opts
}

// New creates new Service which will start and stop passing unit.
func New(logger log.FieldLogger, unit Unit, closers ...func() error) *Service {
	return NewWithOpts(logger, unit, Opts{
		ShutdownSignals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Closers:         closers,
	})
}

// NewWithOpts is a more configurable version of New.
func NewWithOpts(logger log.FieldLogger, unit Unit, opts Opts) *Service {
	return &Service{
		Signals: make(chan os.Signal, 1),
		Unit:    unit,
		Logger:  logger,
		Opts:    opts,
	}
}

// Start wraps StartContext using the background context.
func (s *Service) Start() error {
	return s.StartContext(context.Background())
}

// StartContext starts service unit in the separate goroutine and
// blocks until fatal error occurs, ctx is canceled or any of the shutdown signals is received.
func (s *Service) StartContext(ctx context.Context) (err error) {
	if mr, ok := s.Unit.(MetricsRegisterer); ok {
		mr.MustRegisterMetrics()
		defer mr.UnregisterMetrics()
	}
	defer func() {
		err = errors.Join(err, s.close())
	}()

	fatalError := make(chan error, 1)
	go s.Unit.Start(fatalError)

	signal.Notify(s.Signals, s.Opts.ShutdownSignals...)
	defer signal.Stop(s.Signals)

	select {
	case <-ctx.Done():
		s.Logger.Info("context is canceled, service will be stopped")
	case err = <-fatalError:
		s.Logger.Error("service fatal error", log.Error(err))
		if stopErr := s.Unit.Stop(false); stopErr != nil {
			s.Logger.Error("service stop error", log.Error(stopErr))
		}
		return fmt.Errorf("fatal error: %w", err)
	case sig := <-s.Signals:
		s.Logger.Info("service got signal", log.String("signal", sig.String()))
	}

	if err = s.Unit.Stop(true); err != nil {
		return fmt.Errorf("stop service gracefully: %w", err)
	}
	return nil
}

func (s *Service) close() error {
	var errs []error
	for _, closeFn := range s.Opts.Closers {
		if err := closeFn(); err != nil {
			s.Logger.Error("service resource closing error", log.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

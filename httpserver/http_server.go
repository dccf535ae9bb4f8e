/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package httpserver runs an HTTP server from configuration and reports the health of its dependencies.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/atomic"

	"github.com/acronis/go-throttlekit/log"
)

// HTTPServer represents a wrapper around http.Server with graceful shutdown.
type HTTPServer struct {
	HTTPServer      *http.Server
	Logger          log.FieldLogger
	ShutdownTimeout time.Duration

	port     atomic.Int32
	done     chan struct{}
	listener net.Listener
}

// New creates a new HTTPServer serving handler.
func New(cfg *Config, logger log.FieldLogger, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		HTTPServer: &http.Server{
			Addr:              cfg.Address,
			WriteTimeout:      cfg.Timeouts.Write,
			ReadTimeout:       cfg.Timeouts.Read,
			ReadHeaderTimeout: cfg.Timeouts.ReadHeader,
			IdleTimeout:       cfg.Timeouts.Idle,
			Handler:           handler,
		},
		Logger:          logger,
		ShutdownTimeout: cfg.Timeouts.Shutdown,
		done:            make(chan struct{}),
	}
}

// Listen opens the listening socket. After it returns, GetPort reports the actual port.
// Start calls it when it has not been called yet.
func (s *HTTPServer) Listen() error {
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.HTTPServer.Addr)
	if err != nil {
		return err
	}
	_, portStr, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("unexpected format of TCP listener address: %w", err)
	}
	port, err := strconv.ParseInt(portStr, 10, 32)
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("unexpected format of TCP listener address: no numeric port: %w", err)
	}
	s.port.Store(int32(port))
	s.listener = listener
	return nil
}

// Start starts application HTTP server in a blocking way.
// It's supposed that this method will be called in a separate goroutine.
// If a fatal error occurs, it will be sent to the fatalError channel.
func (s *HTTPServer) Start(fatalError chan<- error) {
	defer close(s.done)

	logger := s.Logger.With(
		log.String("address", s.HTTPServer.Addr),
		log.Duration("write_timeout", s.HTTPServer.WriteTimeout),
		log.Duration("read_timeout", s.HTTPServer.ReadTimeout),
		log.Duration("shutdown_timeout", s.ShutdownTimeout),
	)
	logger.Info("starting application HTTP server...")

	if err := s.Listen(); err != nil {
		logger.Error("application HTTP server error", log.Error(err))
		fatalError <- err
		return
	}

	if err := s.HTTPServer.Serve(s.listener); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("application HTTP server closed")
			return
		}
		logger.Error("application HTTP server error", log.Error(err))
		fatalError <- err
	}
}

// Stop stops application HTTP server (gracefully or not) and waits until Start returns.
// It must be called only after Start has been launched.
func (s *HTTPServer) Stop(gracefully bool) error {
	if !gracefully {
		s.Logger.Info("closing application HTTP server...")
		if err := s.HTTPServer.Close(); err != nil {
			s.Logger.Error("application HTTP server closing error", log.Error(err))
			return err
		}
		<-s.done
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	s.Logger.Info("shutting down application HTTP server...", log.Duration("timeout", s.ShutdownTimeout))
	if err := s.HTTPServer.Shutdown(ctx); err != nil {
		s.Logger.Error("application HTTP server shutting down error", log.Error(err))
		return err
	}
	<-s.done
	s.Logger.Info("application HTTP server shut down")
	return nil
}

// GetPort returns the port the server listens on, 0 before Listen.
func (s *HTTPServer) GetPort() int {
	return int(s.port.Load())
}

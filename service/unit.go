/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

// Unit is a component of a service with its own lifecycle, e.g. an HTTP server.
type Unit interface {
	// Start runs the unit. It may block for the unit's lifetime.
	// A failure is reported once through fatalErr; the channel must not be used after Start returns.
	Start(fatalErr chan<- error)

	// Stop halts the unit, cleanly when gracefully is true.
	Stop(gracefully bool) error
}

// MetricsRegisterer is an interface for objects that can register its own metrics.
type MetricsRegisterer interface {
	MustRegisterMetrics()
	UnregisterMetrics()
}

/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit runs a request through the throttle engine independently of the transport.
//
// RequestProcessor resolves the caller identity, asks the engine for admission and then either
// executes the request, rejects it, or applies the configured StoreFailurePolicy when the window
// store could not be reached. Transports plug in by implementing RequestHandler.
package ratelimit

/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package throttle binds per-handler sliding-window throttling to HTTP handlers.
//
// A Binder is created once per router. For every handler it turns the handler's declaration
// (a rate like "100/m" and an optional scope) into a middleware at registration time, so
// misconfigured rates fail before the server starts. Throttled requests are answered by the
// reject handler registered for their scope, or by DefaultReject (429 with Retry-After).
package throttle

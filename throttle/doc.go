/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package throttle implements per-handler request throttling with a sliding-window log.
//
// Every admitted request of a caller is recorded as a timestamp in a history kept in a shared
// TTL-capable WindowStore under the key "throttle:{scope}:{identity}". A request is admitted when fewer
// than Limit timestamps of that history fall into the last Window; otherwise it is rejected and the
// history is left untouched, so rejected requests neither consume budget nor extend the key's lifetime.
// Expired timestamps are pruned lazily on each request and the store expires idle keys by TTL,
// so no background work is needed.
//
// Handlers declare a rate such as "5/s" or "100/h" and, optionally, a scope. Handlers that share
// a scope share a budget. The scope defaults to the handler name.
package throttle

/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides a generic in-memory LRU cache with per-entry expiration and Prometheus metrics.
// It backs the process-local window store.
package lrucache

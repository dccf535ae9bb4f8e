/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package middleware contains HTTP middlewares and the request-scoped values they share through the context.
package middleware

import (
	"context"

	"github.com/acronis/go-throttlekit/log"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyLogger
	ctxKeyPrincipalID
)

func getStringFromContext(ctx context.Context, key ctxKey) string {
	value, _ := ctx.Value(key).(string)
	return value
}

// NewContextWithRequestID creates a new context with request id.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// GetRequestIDFromContext extracts request id from the context.
func GetRequestIDFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, ctxKeyRequestID)
}

// NewContextWithLogger creates a new context with logger.
func NewContextWithLogger(ctx context.Context, logger log.FieldLogger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, logger)
}

// GetLoggerFromContext extracts logger from the context.
func GetLoggerFromContext(ctx context.Context) log.FieldLogger {
	value := ctx.Value(ctxKeyLogger)
	if value == nil {
		return nil
	}
	return value.(log.FieldLogger)
}

// NewContextWithPrincipalID creates a new context with the id of the authenticated principal.
// Authentication middlewares put it there; throttling uses it as the caller identity.
func NewContextWithPrincipalID(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipalID, principalID)
}

// GetPrincipalIDFromContext extracts the authenticated principal id from the context.
// Empty string means the request is anonymous.
func GetPrincipalIDFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, ctxKeyPrincipalID)
}

/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import (
	"net"
	"net/http"
	"strings"

	"github.com/acronis/go-throttlekit/httpserver/middleware"
	"github.com/acronis/go-throttlekit/throttle"
)

const headerForwardedFor = "X-Forwarded-For"

// RequestMetadataFromRequest collects what the caller identity is resolved from.
// getPrincipal may be nil, then the principal id is taken from the request context.
func RequestMetadataFromRequest(r *http.Request, getPrincipal func(r *http.Request) string) throttle.RequestMetadata {
	if getPrincipal == nil {
		getPrincipal = principalFromContext
	}
	remoteAddr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		remoteAddr = host
	}
	return throttle.RequestMetadata{
		PrincipalID:  getPrincipal(r),
		ForwardedFor: strings.Join(r.Header.Values(headerForwardedFor), ","),
		RemoteAddr:   remoteAddr,
	}
}

// GetIdentity returns the identity an HTTP request is throttled by.
func GetIdentity(r *http.Request, getPrincipal func(r *http.Request) string) string {
	return throttle.ResolveIdentity(RequestMetadataFromRequest(r, getPrincipal))
}

func principalFromContext(r *http.Request) string {
	return middleware.GetPrincipalIDFromContext(r.Context())
}

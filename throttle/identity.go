/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package throttle

import "strings"

// UnknownIdentity is used when a request carries nothing to identify its caller.
const UnknownIdentity = "unknown"

// RequestMetadata is what the identity of a caller is derived from.
type RequestMetadata struct {
	// PrincipalID is the id of the authenticated user, empty for anonymous requests.
	PrincipalID string
	// ForwardedFor is the raw X-Forwarded-For value.
	ForwardedFor string
	// RemoteAddr is the network address of the peer.
	RemoteAddr string
}

// ResolveIdentity returns the principal id if present, otherwise the forwarded-for chain with
// all whitespace removed (the whole chain, not its first hop), otherwise the remote address.
// It never returns an empty string.
func ResolveIdentity(md RequestMetadata) string {
	if md.PrincipalID != "" {
		return md.PrincipalID
	}
	if xff := strings.Join(strings.Fields(md.ForwardedFor), ""); xff != "" {
		return xff
	}
	if addr := strings.TrimSpace(md.RemoteAddr); addr != "" {
		return addr
	}
	return UnknownIdentity
}

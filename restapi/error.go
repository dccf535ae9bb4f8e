/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package restapi writes JSON responses and error bodies in the {"error": {...}} envelope.
package restapi

// Error is the body of an error response.
type Error struct {
	Domain  string                 `json:"domain"`
	Code    string                 `json:"code"`
	Message string                 `json:"message,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error codes.
// They are variables so services can use their own wording.
var (
	ErrCodeInternal         = "internalError"
	ErrCodeTooManyRequests  = "tooManyRequests"
	ErrCodeStoreUnavailable = "storeUnavailable"
)

// Error messages.
var (
	ErrMessageInternal         = "Internal error."
	ErrMessageTooManyRequests  = "Too many requests."
	ErrMessageStoreUnavailable = "Rate limiting storage is unavailable."
)

// NewError creates a new Error.
func NewError(domain, code, message string) *Error {
	return &Error{Domain: domain, Code: code, Message: message}
}

// NewInternalError creates an internal error for the domain.
func NewInternalError(domain string) *Error {
	return NewError(domain, ErrCodeInternal, ErrMessageInternal)
}

// AddContext sets a context value and returns the same error for chaining.
func (e *Error) AddContext(field string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[field] = value
	return e
}

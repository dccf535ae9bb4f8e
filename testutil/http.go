/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil contains assertions shared by the tests of throttling components.
package testutil

import (
	"encoding/json"
	"net/http/httptest"

	"github.com/stretchr/testify/require"
)

type tHelper interface {
	Helper()
}

type errorResponse struct {
	Error struct {
		Domain  string `json:"domain"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// RequireErrorInRecorder asserts that the recorded response has the given status
// and a JSON error body with the given domain and code.
func RequireErrorInRecorder(t require.TestingT, resp *httptest.ResponseRecorder, wantHTTPCode int, wantErrDomain, wantErrCode string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, wantHTTPCode, resp.Code)
	require.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, wantErrDomain, body.Error.Domain)
	require.Equal(t, wantErrCode, body.Error.Code)
}

/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-throttlekit/log/logtest"
	"github.com/acronis/go-throttlekit/testutil"
)

func TestRespondError(t *testing.T) {
	MustInitAndRegisterMetrics("test")
	defer UnregisterMetrics()

	logger := logtest.NewRecorder()
	resp := httptest.NewRecorder()
	RespondError(resp, http.StatusTooManyRequests,
		NewError("Orders", ErrCodeTooManyRequests, ErrMessageTooManyRequests).AddContext("scope", "orders.list"), logger)

	require.JSONEq(t,
		`{"error":{"domain":"Orders","code":"tooManyRequests","message":"Too many requests.","context":{"scope":"orders.list"}}}`,
		resp.Body.String())
	testutil.RequireErrorInRecorder(t, resp, http.StatusTooManyRequests, "Orders", ErrCodeTooManyRequests)

	entry, found := logger.FindEntry("error in response")
	require.True(t, found)
	code, _ := entry.FindField("error_code")
	require.Equal(t, ErrCodeTooManyRequests, string(code.Bytes))

	testutil.RequireLabeledCounterValue(t, metricsResponseErrors, 1, "Orders", ErrCodeTooManyRequests)
}

func TestRespondCodeAndJSON(t *testing.T) {
	t.Run("no html escaping", func(t *testing.T) {
		resp := httptest.NewRecorder()
		RespondJSON(resp, map[string]string{"message": "<ok>"}, nil)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Equal(t, ContentTypeAppJSON, resp.Header().Get("Content-Type"))
		require.Equal(t, `{"message":"<ok>"}`, resp.Body.String())
	})

	t.Run("nil body", func(t *testing.T) {
		resp := httptest.NewRecorder()
		RespondCodeAndJSON(resp, http.StatusNoContent, nil, nil)
		require.Equal(t, http.StatusNoContent, resp.Code)
		require.Zero(t, resp.Body.Len())
	})

	t.Run("unmarshalable body", func(t *testing.T) {
		resp := httptest.NewRecorder()
		logger := logtest.NewRecorder()
		RespondCodeAndJSON(resp, http.StatusOK, map[string]interface{}{"ch": make(chan int)}, logger)
		require.Equal(t, http.StatusInternalServerError, resp.Code)
		require.Zero(t, resp.Body.Len())
		_, found := logger.FindEntry("error while marshaling json for response body")
		require.True(t, found)
	})
}

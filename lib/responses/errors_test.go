package responses

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadAuthErrorsNotAllowedForSentry(t *testing.T) {
	badAuthErrResponse := echo.NewHTTPError(http.StatusBadRequest, echo.Map{
		"error":   true,
		"code":    1,
		"message": "bad auth",
	})
	assert.False(t, isErrAllowedForSentry(badAuthErrResponse))
	assert.False(t, isErrAllowedForSentry(echo.NewHTTPError(http.StatusUnauthorized, "missing key")))
}

func TestNotBadAuthErrorsAllowedForSentry(t *testing.T) {
	notBadAuthErrResponse := echo.NewHTTPError(http.StatusBadRequest, echo.Map{
		"error":   true,
		"code":    2,
		"message": "not bad auth",
	})
	assert.True(t, isErrAllowedForSentry(notBadAuthErrResponse))
	assert.True(t, isErrAllowedForSentry(echo.NewHTTPError(http.StatusNotFound, InvoiceNotFoundError)))
}

func TestNonErrorResponseErrorsAllowedForSentry(t *testing.T) {
	assert.True(t, isErrAllowedForSentry(errors.New("random error")))
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()

	for _, tc := range []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{name: "plain error", err: errors.New("boom"), status: http.StatusInternalServerError, code: GeneralServerError.Code},
		{name: "unauthorized", err: echo.NewHTTPError(http.StatusUnauthorized, "invalid key"), status: http.StatusUnauthorized, code: BadAuthError.Code},
		{name: "not found", err: echo.NewHTTPError(http.StatusNotFound, InvoiceNotFoundError), status: http.StatusNotFound, code: InvoiceNotFoundError.Code},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			HTTPErrorHandler(tc.err, c)

			assert.Equal(t, tc.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartflows/shule/core"
	testutil "github.com/smartflows/shule/tests"
)

func Test_appHTTPErrorHandler(t *testing.T) {
	_, translator := testutil.NewValidator()

	newCtx := func() (echo.Context, *httptest.ResponseRecorder) {
		app := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		return app.NewContext(req, rec), rec
	}

	t.Run("shutdown error signals shutdown", func(t *testing.T) {
		logger := testutil.NewLogger(t)
		var shutdowns int
		handler := newAppHTTPErrorHandler(logger, translator, func() { shutdowns++ })

		ctx, rec := newCtx()
		handler(errors.Wrap(core.NewShutdownError("claims missing from request context"), "getting context claims"), ctx)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
		assert.Equal(t, 1, shutdowns)
		require.Len(t, logger.Errors, 1)
	})

	t.Run("plain error does not signal shutdown", func(t *testing.T) {
		logger := testutil.NewLogger(t)
		var shutdowns int
		handler := newAppHTTPErrorHandler(logger, translator, func() { shutdowns++ })

		ctx, rec := newCtx()
		handler(errors.New("boom"), ctx)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Zero(t, shutdowns)
		require.Len(t, logger.Errors, 1)
	})

	t.Run("validation error without fields", func(t *testing.T) {
		handler := newAppHTTPErrorHandler(testutil.NewLogger(t), translator, func() {})

		ctx, rec := newCtx()
		handler(core.NewValidationError(errors.New("email already exists")), ctx)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"email already exists"}`, rec.Body.String())
	})

	t.Run("validation error with fields", func(t *testing.T) {
		handler := newAppHTTPErrorHandler(testutil.NewLogger(t), translator, func() {})

		ctx, rec := newCtx()
		handler(core.NewValidationError(nil, core.FieldError{Field: "email", Error: "email already exists"}), ctx)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"email":"email already exists"}`, rec.Body.String())
	})
}

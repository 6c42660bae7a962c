package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/verarta/artledger/internal/ledgererr"
)

// HTTPErrorHandler maps the ledger's sentinel errors to HTTP status codes
// and renders a uniform JSON error body. Internal errors are sanitized.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		message = fmt.Sprintf("%v", httpErr.Message)
	case errors.Is(err, ledgererr.ErrInvalidArgument):
		code = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, ledgererr.ErrPermissionDenied):
		code = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, ledgererr.ErrNotFound):
		code = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, ledgererr.ErrAlreadyExists), errors.Is(err, ledgererr.ErrConflict):
		code = http.StatusConflict
		message = err.Error()
	case errors.Is(err, ledgererr.ErrFailedPrecondition):
		code = http.StatusPreconditionFailed
		message = err.Error()
	case errors.Is(err, ledgererr.ErrResourceExhausted):
		code = http.StatusTooManyRequests
		message = err.Error()
	}

	requestID := c.Response().Header().Get(echo.HeaderXRequestID)

	if jsonErr := c.JSON(code, map[string]any{
		"error":      message,
		"request_id": requestID,
	}); jsonErr != nil {
		c.Logger().Error(jsonErr)
	}
}

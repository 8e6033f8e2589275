package devapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// newHTTPErrorHandler maps errors that escape the handlers (router 404/405,
// bind failures, panics surfaced by Recover) onto the failure envelope. The
// client treats any non-envelope body as a network error, so even the
// fixture's stray errors must speak the protocol.
func newHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code := codeForStatus(he.Code)
			_ = fail(c, he.Code, code, fmt.Sprintf("%v", he.Message))
			return
		}

		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")
		_ = fail(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusBadRequest:
		return "INVALID_PAYLOAD"
	default:
		return "INTERNAL"
	}
}

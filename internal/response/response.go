// Package response renders the JSON envelope every endpoint answers
// with: {success, message, data, code?}.  code is the numeric HTTP
// status and only appears on failures.
package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the body of every response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Code    int    `json:"code,omitempty"`
}

// ErrorData is the data of a failed envelope.  Reason is a stable
// machine-readable slug such as "insufficient_quota".
type ErrorData struct {
	Reason string `json:"reason"`
}

// OK writes a successful envelope with the given status.
func OK(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an error envelope carrying status as its code.  reason
// goes into data; an empty reason leaves data null.
func Fail(c echo.Context, status int, reason, message string) error {
	env := Envelope{Success: false, Message: message, Code: status}
	if reason != "" {
		env.Data = ErrorData{Reason: reason}
	}
	return c.JSON(status, env)
}

// ErrorHandler renders framework errors (unknown route, bad method,
// bind failures, panics recovered by middleware) as envelopes.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		message := "internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(status)
			}
		} else {
			log.Error("unhandled error", "method", c.Request().Method, "path", c.Path(), "err", err)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = Fail(c, status, reasonFor(status), message)
		}
		if werr != nil {
			log.Error("write error response", "err", werr)
		}
	}
}

func reasonFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	default:
		return "internal_error"
	}
}

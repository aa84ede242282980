package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kata/useradmin/internal/api/websession"
	"github.com/kata/useradmin/internal/core/domain"
)

const genericErrorMessage = "Something went wrong. Please try again later."

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Flashes a not-found message and redirects to listPath for missing users.
//   - Renders the 403 page for denied access.
//   - Renders Echo's own errors (404 from router, 405, bad form) with their status.
//   - Logs unexpected errors internally and shows a generic page without details.
func NewHTTPErrorHandler(log zerolog.Logger, listPath string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if errors.Is(err, domain.ErrUserNotFound) {
			msg := fmt.Sprintf("User with id = %s not found", c.Param("id"))
			if ferr := websession.AddFlash(c, websession.FlashError, msg); ferr != nil {
				log.Warn().Err(ferr).Msg("flash not-found message")
			}
			_ = c.Redirect(http.StatusFound, listPath)
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		if rerr := c.Render(code, "error.html", echo.Map{
			"Status":    code,
			"Message":   msg,
			"Principal": websession.PrincipalFrom(c),
		}); rerr != nil {
			log.Error().Err(rerr).Msg("render error page")
			_ = c.String(code, msg)
		}
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return he.Code, "The page you requested does not exist."
		case http.StatusMethodNotAllowed:
			return he.Code, "This action is not allowed here."
		case http.StatusForbidden:
			return he.Code, "Access denied."
		}
		if he.Code < http.StatusInternalServerError {
			return he.Code, fmt.Sprintf("%v", he.Message)
		}
	}

	if errors.Is(err, domain.ErrAccessDenied) {
		return http.StatusForbidden, "Access denied. You do not have permission to view this page."
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, genericErrorMessage
}

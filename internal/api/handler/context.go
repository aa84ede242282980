package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kata/useradmin/internal/api/websession"
	"github.com/kata/useradmin/internal/core/domain"
)

// csrfCtxKey is where echo's CSRF middleware leaves the token.
const csrfCtxKey = "csrf"

// render fills in the values every layout needs (principal, flashes, CSRF
// token) and renders the named page.
func render(c echo.Context, code int, name string, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	data["Principal"] = websession.PrincipalFrom(c)
	data["Flashes"] = websession.PopFlashes(c)
	if token, ok := c.Get(csrfCtxKey).(string); ok {
		data["CSRF"] = token
	}
	return c.Render(code, name, data)
}

// pathInt64 parses a numeric path param. A malformed id cannot name a stored
// user, so it reports domain.ErrUserNotFound.
func pathInt64(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, domain.ErrUserNotFound
	}
	return id, nil
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kata/useradmin/internal/api/metrics"
	"github.com/kata/useradmin/internal/api/websession"
	"github.com/kata/useradmin/internal/core/domain"
	"github.com/kata/useradmin/internal/core/ports"
	"github.com/kata/useradmin/internal/core/security"
)

// Authorize enforces policy on every request. It loads the principal from the
// session, exposes it through websession.PrincipalFrom and then:
//   - Allow: calls the next handler.
//   - RequireLogin: redirects to loginPath.
//   - Deny: returns domain.ErrAccessDenied for the error handler to render.
//
// The session middleware must run first.
func Authorize(policy *security.Policy, sessions ports.SessionManager, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := websession.From(c)
			if err != nil {
				return err
			}
			principal, _ := sessions.Current(sess)
			websession.SetPrincipal(c, principal)

			decision := policy.Decide(c.Request().URL.Path, principal)
			metrics.AuthorizationDecisionsTotal.WithLabelValues(decision.String()).Inc()

			switch decision {
			case security.Allow:
				return next(c)
			case security.RequireLogin:
				return c.Redirect(http.StatusFound, loginPath)
			default:
				return domain.ErrAccessDenied
			}
		}
	}
}

package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kata/useradmin/internal/api/metrics"
	"github.com/kata/useradmin/internal/api/websession"
	"github.com/kata/useradmin/internal/core/domain"
	"github.com/kata/useradmin/internal/core/ports"
)

// Redirect targets of the login flow.
const (
	LoginPath         = "/login"
	loginSuccessPath  = "/user"
	loginFailurePath  = "/login?error=true"
	logoutSuccessPath = "/login?logout"
)

// AuthHandler serves the public pages and the login and logout endpoints.
type AuthHandler struct {
	sessions ports.SessionManager
	log      zerolog.Logger
}

func NewAuthHandler(sessions ports.SessionManager, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, log: log}
}

type loginForm struct {
	EmailOrUsername string `form:"emailOrUsername"`
	Password        string `form:"password"`
}

// Home renders the landing page.
func (h *AuthHandler) Home(c echo.Context) error {
	return render(c, http.StatusOK, "index.html", nil)
}

// LoginPage renders the login form, with a banner after a failed attempt or
// a logout.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	q := c.QueryParams()
	return render(c, http.StatusOK, "login.html", echo.Map{
		"LoginError": q.Has("error"),
		"LoggedOut":  q.Has("logout"),
	})
}

// Login authenticates the submitted credentials and binds the principal to
// the session. Failures of any kind redirect back with ?error=true.
func (h *AuthHandler) Login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		return c.Redirect(http.StatusFound, loginFailurePath)
	}

	sess, err := websession.From(c)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return err
	}

	if _, err := h.sessions.Login(c.Request().Context(), sess, form.EmailOrUsername, form.Password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
			h.log.Info().Str("identifier", form.EmailOrUsername).Msg("login rejected")
			return c.Redirect(http.StatusFound, loginFailurePath)
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return c.Redirect(http.StatusFound, loginSuccessPath)
}

// Logout invalidates the session. It is served on GET and POST.
func (h *AuthHandler) Logout(c echo.Context) error {
	sess, err := websession.From(c)
	if err != nil {
		return err
	}
	if _, err := h.sessions.Logout(c.Request().Context(), sess); err != nil {
		return err
	}
	metrics.LogoutsTotal.Inc()
	return c.Redirect(http.StatusFound, logoutSuccessPath)
}

// UserPage renders the signed-in landing page.
func (h *AuthHandler) UserPage(c echo.Context) error {
	return render(c, http.StatusOK, "user.html", nil)
}

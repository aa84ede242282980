package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/kata/useradmin/internal/api/handler"
	"github.com/kata/useradmin/internal/api/middleware"
	"github.com/kata/useradmin/internal/core/ports"
	"github.com/kata/useradmin/internal/core/security"
	infrahttp "github.com/kata/useradmin/internal/infrastructure/http"
	"github.com/kata/useradmin/internal/infrastructure/http/handlers"
)

// AdminDeps wires the admin panel.
type AdminDeps struct {
	Log      zerolog.Logger
	Users    ports.UserService
	Sessions ports.SessionManager
	Store    sessions.Store
	Policy   *security.Policy
	// SecureCookies marks the CSRF cookie Secure.
	SecureCookies bool
	Health        []handlers.Dependency
}

// DirectoryDeps wires the user directory.
type DirectoryDeps struct {
	Log       zerolog.Logger
	Directory ports.DirectoryService
	// Store only carries flash messages.
	Store  sessions.Store
	Health []handlers.Dependency
}

// NewAdminRouter builds the admin panel: login/logout, the signed-in user
// page and user management under /admin, all behind the policy.
func NewAdminRouter(d AdminDeps) (*echo.Echo, error) {
	if d.Policy == nil {
		d.Policy = security.DefaultPolicy()
	}
	e, err := newBaseRouter(d.Log, d.Store, handler.AdminListPath, d.Health)
	if err != nil {
		return nil, err
	}

	e.Use(echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		TokenLookup:    "form:_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   d.SecureCookies,
		CookieSameSite: http.SameSiteLaxMode,
	}))
	e.Use(middleware.Authorize(d.Policy, d.Sessions, handler.LoginPath))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Sessions, d.Log)
	adminHandler := handler.NewAdminHandler(d.Users, d.Log)

	// --- Public and account routes ---
	e.GET("/", authHandler.Home)
	e.GET("/index", authHandler.Home)
	e.GET(handler.LoginPath, authHandler.LoginPage)
	e.POST(handler.LoginPath, authHandler.Login)
	e.GET("/logout", authHandler.Logout)
	e.POST("/logout", authHandler.Logout)
	e.GET("/user", authHandler.UserPage)

	// --- User management (ROLE_ADMIN) ---
	admin := e.Group(handler.AdminListPath)
	admin.GET("", adminHandler.List)
	admin.GET("/add", adminHandler.AddForm)
	admin.POST("/add", adminHandler.Add)
	admin.GET("/edit/:id", adminHandler.EditForm)
	admin.POST("/edit/:id", adminHandler.Edit)
	admin.GET("/delete/:id", adminHandler.Delete)

	return e, nil
}

// NewDirectoryRouter builds the unauthenticated user directory under /users.
func NewDirectoryRouter(d DirectoryDeps) (*echo.Echo, error) {
	e, err := newBaseRouter(d.Log, d.Store, handler.DirectoryListPath, d.Health)
	if err != nil {
		return nil, err
	}

	h := handler.NewDirectoryHandler(d.Directory, d.Log)

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, handler.DirectoryListPath)
	})

	users := e.Group(handler.DirectoryListPath)
	users.GET("", h.List)
	users.GET("/add", h.AddForm)
	users.POST("", h.Create)
	users.POST("/add", h.Create)
	users.GET("/edit/:id", h.EditForm)
	users.POST("/update/:id", h.Update)
	users.GET("/delete/:id", h.Delete)

	return e, nil
}

// newBaseRouter adds pages, validation, error handling and sessions on top
// of the shared infrastructure router.
func newBaseRouter(log zerolog.Logger, store sessions.Store, listPath string, health []handlers.Dependency) (*echo.Echo, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}

	e := infrahttp.NewRouter(log, health...)
	e.Renderer = renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log, listPath)

	e.StaticFS("/css", staticFiles())
	e.Use(session.Middleware(store))

	return e, nil
}

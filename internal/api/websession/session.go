// Package websession adapts gorilla sessions, as exposed by echo-contrib,
// to the ports.Session contract and carries flash messages.
package websession

import (
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/kata/useradmin/internal/core/security"
)

// CookieName names the session cookie of both apps.
const CookieName = "useradmin_session"

const (
	keyUserID      = "uid"
	keyUsername    = "username"
	keyAuthorities = "authorities"

	principalCtxKey = "principal"
)

func init() {
	// flashes are stored as []interface{}
	gob.Register([]interface{}{})
}

// NewCookieStore returns a signed cookie store for apps that keep only
// flashes in the session. gorilla defaults to SameSite=None, which browsers
// refuse without Secure, so Lax is set explicitly.
func NewCookieStore(secure bool, keyPairs ...[]byte) *sessions.CookieStore {
	store := sessions.NewCookieStore(keyPairs...)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Session implements ports.Session over the request's gorilla session.
type Session struct {
	c    echo.Context
	sess *sessions.Session
}

// From loads the session for the current request. The session middleware
// must be installed.
func From(c echo.Context) (*Session, error) {
	s, err := load(c)
	if err != nil {
		return nil, err
	}
	return &Session{c: c, sess: s}, nil
}

// load returns the request's session. A cookie that no longer decodes
// (rotated signing key, tampering) yields the fresh session gorilla hands
// back alongside the error; store failures are returned.
func load(c echo.Context) (*sessions.Session, error) {
	s, err := session.Get(CookieName, c)
	if err == nil {
		return s, nil
	}
	var scErr securecookie.Error
	if s != nil && errors.As(err, &scErr) && scErr.IsDecode() {
		return s, nil
	}
	return nil, fmt.Errorf("load session: %w", err)
}

func (s *Session) Principal() (*security.Principal, bool) {
	id, ok := s.sess.Values[keyUserID].(int64)
	if !ok {
		return nil, false
	}
	username, _ := s.sess.Values[keyUsername].(string)
	auths, _ := s.sess.Values[keyAuthorities].([]string)
	return &security.Principal{UserID: id, Username: username, Authorities: auths}, true
}

// Bind discards any previous state and stores p under a new session id.
func (s *Session) Bind(p security.Principal) error {
	s.sess.ID = ""
	s.sess.Values = map[interface{}]interface{}{
		keyUserID:      p.UserID,
		keyUsername:    p.Username,
		keyAuthorities: p.Authorities,
	}
	return s.save()
}

func (s *Session) Invalidate() error {
	s.sess.Values = map[interface{}]interface{}{}
	if s.sess.Options == nil {
		s.sess.Options = &sessions.Options{Path: "/"}
	}
	s.sess.Options.MaxAge = -1
	return s.save()
}

func (s *Session) save() error {
	if err := s.sess.Save(s.c.Request(), s.c.Response()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SetPrincipal exposes the authenticated principal to later handlers.
func SetPrincipal(c echo.Context, p *security.Principal) {
	c.Set(principalCtxKey, p)
}

// PrincipalFrom returns the principal set by the authorization middleware,
// or nil for anonymous requests.
func PrincipalFrom(c echo.Context) *security.Principal {
	p, _ := c.Get(principalCtxKey).(*security.Principal)
	return p
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kata/useradmin/internal/core/domain"
	"github.com/kata/useradmin/internal/core/ports"
	"github.com/kata/useradmin/internal/core/security"
)

type sessionManager struct {
	auth ports.Authenticator
	log  zerolog.Logger
}

// NewSessionManager returns a SessionManager that authenticates through auth.
func NewSessionManager(auth ports.Authenticator, log zerolog.Logger) ports.SessionManager {
	return &sessionManager{auth: auth, log: log}
}

// Login walks Anonymous -> Authenticating -> Authenticated, binding the
// principal to sess. On rejection it ends back in Anonymous and returns
// domain.ErrInvalidCredentials regardless of the cause.
func (m *sessionManager) Login(ctx context.Context, sess ports.Session, identifier, password string) (security.LoginState, error) {
	state, err := advance(security.StateAnonymous, security.StateAuthenticating)
	if err != nil {
		return security.StateAnonymous, err
	}

	p, err := m.auth.Authenticate(ctx, identifier, password)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			return security.StateAnonymous, fmt.Errorf("login: %w", err)
		}
		if state, err = advance(state, security.StateRejected); err != nil {
			return security.StateAnonymous, err
		}
		state, _ = advance(state, security.StateAnonymous)
		return state, domain.ErrInvalidCredentials
	}

	if state, err = advance(state, security.StateAuthenticated); err != nil {
		return security.StateAnonymous, err
	}
	if err := sess.Bind(*p); err != nil {
		return security.StateAnonymous, fmt.Errorf("bind session: %w", err)
	}

	m.log.Info().Int64("user_id", p.UserID).Str("username", p.Username).Msg("user logged in")
	return state, nil
}

// Logout tears the session down unconditionally.
func (m *sessionManager) Logout(_ context.Context, sess ports.Session) (security.LoginState, error) {
	if p, ok := sess.Principal(); ok {
		m.log.Info().Int64("user_id", p.UserID).Str("username", p.Username).Msg("user logged out")
	}
	if err := sess.Invalidate(); err != nil {
		return security.StateAnonymous, fmt.Errorf("invalidate session: %w", err)
	}
	return security.StateAnonymous, nil
}

func (m *sessionManager) Current(sess ports.Session) (*security.Principal, security.LoginState) {
	if p, ok := sess.Principal(); ok {
		return p, security.StateAuthenticated
	}
	return nil, security.StateAnonymous
}

func advance(from, to security.LoginState) (security.LoginState, error) {
	if !from.CanTransitionTo(to) {
		return from, fmt.Errorf("%w: %s -> %s", security.ErrInvalidLoginTransition, from, to)
	}
	return to, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kata/useradmin/internal/core/domain"
	"github.com/kata/useradmin/internal/core/ports"
	"github.com/kata/useradmin/internal/core/security"
)

// dummyPassword is hashed once and verified against on lookup misses so a
// rejected login costs the same whether or not the identifier exists.
const dummyPassword = "not-a-real-password"

// fallbackDummyHash is a well-formed cost 10 bcrypt digest used when the
// hasher cannot produce one, so a lookup miss still pays for a comparison.
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type authService struct {
	store  ports.UserStore
	hasher security.Hasher
	log    zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService returns an Authenticator backed by store and hasher.
func NewAuthService(store ports.UserStore, hasher security.Hasher, log zerolog.Logger) ports.Authenticator {
	return &authService{store: store, hasher: hasher, log: log}
}

// Resolve trims the identifier, then tries an exact username match and
// falls back to a case-insensitive email match.
func (s *authService) Resolve(ctx context.Context, identifier string) (*domain.User, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return nil, domain.ErrUserNotFound
	}

	u, err := s.store.FindByUsername(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("resolve by username: %w", err)
	}

	u, err = s.store.FindByEmail(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve by email: %w", err)
	}
	return u, nil
}

func (s *authService) Authenticate(ctx context.Context, identifier, password string) (*security.Principal, error) {
	u, err := s.Resolve(ctx, identifier)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.hasher.Verify(password, s.dummy())
		s.log.Debug().Msg("login rejected: unknown identifier")
		return nil, domain.ErrInvalidCredentials
	}

	creds := security.CredentialsOf(u)
	if !s.hasher.Verify(password, creds.PasswordHash) {
		s.log.Debug().Int64("user_id", creds.UserID).Msg("login rejected: password mismatch")
		return nil, domain.ErrInvalidCredentials
	}

	p := creds.Principal()
	return &p, nil
}

func (s *authService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to prepare dummy hash, using fallback")
			h = fallbackDummyHash
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

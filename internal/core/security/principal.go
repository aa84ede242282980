package security

import (
	"slices"

	"github.com/kata/useradmin/internal/core/domain"
)

// Credentials is the slice of a user the login flow needs: who they are,
// the digest to verify against and the authorities they would be granted.
type Credentials struct {
	UserID       int64
	Username     string
	PasswordHash string
	Authorities  []string
}

// CredentialsOf builds the authentication view of a persisted user.
func CredentialsOf(u *domain.User) Credentials {
	auths := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		auths = append(auths, r.Authority())
	}
	return Credentials{
		UserID:       u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Authorities:  auths,
	}
}

// Principal is the identity bound to an authenticated session.
type Principal struct {
	UserID      int64
	Username    string
	Authorities []string
}

// Principal drops the password digest.
func (c Credentials) Principal() Principal {
	return Principal{
		UserID:      c.UserID,
		Username:    c.Username,
		Authorities: slices.Clone(c.Authorities),
	}
}

// HasAnyAuthority reports whether p holds at least one of auths.
func (p *Principal) HasAnyAuthority(auths ...string) bool {
	if p == nil {
		return false
	}
	for _, a := range auths {
		if slices.Contains(p.Authorities, a) {
			return true
		}
	}
	return false
}

// IsAdmin is a template convenience.
func (p *Principal) IsAdmin() bool {
	return p.HasAnyAuthority(domain.AuthorityPrefix + domain.RoleAdmin)
}

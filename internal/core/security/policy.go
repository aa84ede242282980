package security

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kata/useradmin/internal/core/domain"
)

// Decision is the outcome of evaluating a request path against a Policy.
type Decision int

const (
	Allow Decision = iota
	RequireLogin
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RequireLogin:
		return "require_login"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Access is the requirement a Rule places on the caller.
type Access struct {
	permitAll   bool
	authorities []string
}

// PermitAll lets anonymous callers through.
func PermitAll() Access { return Access{permitAll: true} }

// Authenticated requires a session but no particular authority.
func Authenticated() Access { return Access{} }

// HasAnyAuthority requires a session holding at least one of auths.
func HasAnyAuthority(auths ...string) Access { return Access{authorities: auths} }

// HasAnyRole is HasAnyAuthority over prefixed role names.
func HasAnyRole(roles ...string) Access {
	auths := make([]string, len(roles))
	for i, r := range roles {
		auths[i] = domain.AuthorityPrefix + r
	}
	return HasAnyAuthority(auths...)
}

func (a Access) decide(p *Principal) Decision {
	switch {
	case a.permitAll:
		return Allow
	case p == nil:
		return RequireLogin
	case len(a.authorities) == 0 || p.HasAnyAuthority(a.authorities...):
		return Allow
	default:
		return Deny
	}
}

// Rule binds a set of glob patterns to an Access requirement.
type Rule struct {
	Patterns []string
	Access   Access
}

// Policy is an ordered rule table; the first rule with a matching pattern
// decides. Paths no rule matches require an authenticated session.
type Policy struct {
	rules []Rule
}

// NewPolicy validates every pattern up front.
func NewPolicy(rules ...Rule) (*Policy, error) {
	for _, r := range rules {
		for _, p := range r.Patterns {
			if !doublestar.ValidatePattern(p) {
				return nil, fmt.Errorf("policy: invalid pattern %q", p)
			}
		}
	}
	return &Policy{rules: rules}, nil
}

// DefaultPolicy is the admin panel's rule table.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(
		Rule{
			Patterns: []string{"/", "/index", "/login", "/error/**", "/css/**", "/health", "/health/ready", "/metrics"},
			Access:   PermitAll(),
		},
		Rule{Patterns: []string{"/admin", "/admin/**"}, Access: HasAnyRole(domain.RoleAdmin)},
		Rule{Patterns: []string{"/user"}, Access: HasAnyRole(domain.RoleAdmin, domain.RoleUser)},
		Rule{Patterns: []string{"/**"}, Access: Authenticated()},
	)
	if err != nil {
		panic(err)
	}
	return p
}

// Decide evaluates path for the given principal, which is nil when the
// caller has no session.
func (p *Policy) Decide(path string, principal *Principal) Decision {
	for _, r := range p.rules {
		if r.matches(path) {
			return r.Access.decide(principal)
		}
	}
	return Authenticated().decide(principal)
}

func (r Rule) matches(path string) bool {
	for _, pattern := range r.Patterns {
		// patterns were validated in NewPolicy
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

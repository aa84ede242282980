package domain

import "slices"

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"

	// AuthorityPrefix is prepended to a role name to form the authority
	// string the authorization policy matches on.
	AuthorityPrefix = "ROLE_"
)

// Role is a named authorization group shared by many users.
type Role struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Authority returns the prefixed role name, e.g. "ROLE_ADMIN".
func (r Role) Authority() string {
	return AuthorityPrefix + r.Name
}

// User is the persisted account. It carries no authentication behaviour;
// see security.CredentialsOf for the view the login flow consumes.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Age          int
	Roles        []Role
}

// RoleNames returns the names of the user's roles in stored order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	return slices.Contains(u.RoleNames(), name)
}

package ports

import (
	"context"

	"github.com/kata/useradmin/internal/core/domain"
	"github.com/kata/useradmin/internal/core/security"
)

// UserInput carries the form fields for creating or updating a user.
// An empty Password on update keeps the stored hash.
type UserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Age       int
	RoleNames []string
}

// BootstrapAdmin describes the account seeded into an empty store.
type BootstrapAdmin struct {
	Username string
	Email    string
	Password string
}

// UserService defines the admin panel's use cases over users.
type UserService interface {
	ListAll(ctx context.Context) ([]*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, in UserInput) (*domain.User, error)
	Update(ctx context.Context, id int64, in UserInput) (*domain.User, error)
	DeleteByID(ctx context.Context, id int64) error
	ListRoles(ctx context.Context) ([]domain.Role, error)
	// EnsureAdmin creates the bootstrap admin when no user exists yet and
	// reports whether it did.
	EnsureAdmin(ctx context.Context, admin BootstrapAdmin) (bool, error)
}

// Authenticator turns a login identifier and password into a principal.
type Authenticator interface {
	// Resolve looks the identifier up by username first, then by email.
	Resolve(ctx context.Context, identifier string) (*domain.User, error)
	// Authenticate reports every failure as domain.ErrInvalidCredentials.
	Authenticate(ctx context.Context, identifier, password string) (*security.Principal, error)
}

// SessionManager drives the login handshake over a per-request Session.
type SessionManager interface {
	Login(ctx context.Context, sess Session, identifier, password string) (security.LoginState, error)
	Logout(ctx context.Context, sess Session) (security.LoginState, error)
	Current(sess Session) (*security.Principal, security.LoginState)
}

// DirectoryInput carries the directory form fields.
type DirectoryInput struct {
	Name  string
	Email string
}

// DirectoryService defines the plain CRUD use cases.
type DirectoryService interface {
	ListAll(ctx context.Context) ([]*domain.DirectoryUser, error)
	GetByID(ctx context.Context, id string) (*domain.DirectoryUser, error)
	Create(ctx context.Context, in DirectoryInput) (*domain.DirectoryUser, error)
	Update(ctx context.Context, id string, in DirectoryInput) (*domain.DirectoryUser, error)
	DeleteByID(ctx context.Context, id string) error
}

package ports

import (
	"context"

	"github.com/kata/useradmin/internal/core/domain"
)

// UserStore is the read side the login flow depends on. Every method loads
// the user's roles eagerly and returns domain.ErrUserNotFound on a miss.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// FindByUsername matches exactly.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// UserRepository defines persistence operations for users. Create, Update
// and Delete write the user row and its role links in one transaction.
type UserRepository interface {
	UserStore
	List(ctx context.Context) ([]*domain.User, error)
	Count(ctx context.Context) (int64, error)
	// Create assigns u.ID. Uniqueness violations surface as
	// domain.ErrUsernameTaken or domain.ErrEmailTaken.
	Create(ctx context.Context, u *domain.User) error
	// Update replaces every mutable field and the whole role set.
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id int64) error
}

// RoleRepository reads the shared role catalogue.
type RoleRepository interface {
	List(ctx context.Context) ([]domain.Role, error)
	// FindByNames returns the roles that exist among names; unknown names
	// are simply absent from the result.
	FindByNames(ctx context.Context, names []string) ([]domain.Role, error)
}

// DirectoryRepository persists directory entries. A missing or malformed id
// is reported as domain.ErrUserNotFound and a duplicate email as
// domain.ErrEmailTaken.
type DirectoryRepository interface {
	List(ctx context.Context) ([]*domain.DirectoryUser, error)
	FindByID(ctx context.Context, id string) (*domain.DirectoryUser, error)
	Create(ctx context.Context, u *domain.DirectoryUser) error
	Update(ctx context.Context, u *domain.DirectoryUser) error
	Delete(ctx context.Context, id string) error
}

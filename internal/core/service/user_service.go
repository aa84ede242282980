package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kata/useradmin/internal/core/domain"
	"github.com/kata/useradmin/internal/core/ports"
	"github.com/kata/useradmin/internal/core/security"
)

type userService struct {
	users  ports.UserRepository
	roles  ports.RoleRepository
	hasher security.Hasher
	log    zerolog.Logger
}

// NewUserService returns a UserService implementation.
func NewUserService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	hasher security.Hasher,
	log zerolog.Logger,
) ports.UserService {
	return &userService{users: users, roles: roles, hasher: hasher, log: log}
}

func (s *userService) ListAll(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (s *userService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// Create hashes the password, resolves every role name and persists the user.
func (s *userService) Create(ctx context.Context, in ports.UserInput) (*domain.User, error) {
	if in.Password == "" {
		return nil, fmt.Errorf("create user: password: %w", domain.ErrInvalidInput)
	}
	if err := checkInput(in); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	roles, err := s.resolveRoles(ctx, in.RoleNames)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	u := &domain.User{PasswordHash: hash}
	applyInput(u, in, roles)

	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int64("user_id", u.ID).Str("username", u.Username).Strs("roles", u.RoleNames()).Msg("user created")
	return u, nil
}

// Update replaces the user's mutable fields and role set. The id is kept
// and an empty password leaves the stored hash untouched.
func (s *userService) Update(ctx context.Context, id int64, in ports.UserInput) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	if err := checkInput(in); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	roles, err := s.resolveRoles(ctx, in.RoleNames)
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("update user %d: %w", id, err)
		}
		u.PasswordHash = hash
	}
	applyInput(u, in, roles)

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}

	s.log.Info().Int64("user_id", u.ID).Str("username", u.Username).Strs("roles", u.RoleNames()).Msg("user updated")
	return u, nil
}

func (s *userService) DeleteByID(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	s.log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (s *userService) EnsureAdmin(ctx context.Context, admin ports.BootstrapAdmin) (bool, error) {
	if admin.Username == "" || admin.Password == "" {
		return false, nil
	}
	n, err := s.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	email := admin.Email
	if email == "" {
		email = admin.Username + "@localhost"
	}
	_, err = s.Create(ctx, ports.UserInput{
		Username:  admin.Username,
		Email:     email,
		Password:  admin.Password,
		FirstName: "Admin",
		LastName:  "Admin",
		RoleNames: []string{domain.RoleAdmin, domain.RoleUser},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// resolveRoles fails closed: every requested name must exist.
func (s *userService) resolveRoles(ctx context.Context, names []string) ([]domain.Role, error) {
	wanted := dedupe(names)
	if len(wanted) == 0 {
		return nil, fmt.Errorf("roles: %w", domain.ErrInvalidInput)
	}
	found, err := s.roles.FindByNames(ctx, wanted)
	if err != nil {
		return nil, fmt.Errorf("resolve roles: %w", err)
	}
	for _, name := range wanted {
		if !slices.ContainsFunc(found, func(r domain.Role) bool { return r.Name == name }) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRoleNotFound, name)
		}
	}
	return found, nil
}

// checkInput rejects identity fields that are blank once trimmed.
func checkInput(in ports.UserInput) error {
	fields := []struct{ name, value string }{
		{"username", in.Username},
		{"email", in.Email},
		{"first name", in.FirstName},
		{"last name", in.LastName},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s: %w", f.name, domain.ErrInvalidInput)
		}
	}
	return nil
}

func applyInput(u *domain.User, in ports.UserInput, roles []domain.Role) {
	u.Username = strings.TrimSpace(in.Username)
	u.Email = strings.ToLower(strings.TrimSpace(in.Email))
	u.FirstName = strings.TrimSpace(in.FirstName)
	u.LastName = strings.TrimSpace(in.LastName)
	u.Age = in.Age
	u.Roles = roles
}

func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

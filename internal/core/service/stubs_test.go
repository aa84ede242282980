package service

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/kata/useradmin/internal/core/domain"
	"github.com/kata/useradmin/internal/core/security"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
	err    error // if set, every call returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User), nextID: 1}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = slices.Clone(u.Roles)
	return &clone
}

func (r *stubUserRepo) conflict(u *domain.User) error {
	for id, existing := range r.users {
		if id == u.ID {
			continue
		}
		if existing.Username == u.Username {
			return domain.ErrUsernameTaken
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrEmailTaken
		}
	}
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*domain.User, 0, len(r.users))
	for id := int64(1); id < r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.users)), nil
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	if r.err != nil {
		return r.err
	}
	if err := r.conflict(u); err != nil {
		return err
	}
	u.ID = r.nextID
	r.nextID++
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	if err := r.conflict(u); err != nil {
		return err
	}
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

type stubRoleRepo struct {
	roles []domain.Role
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{roles: []domain.Role{{ID: 1, Name: domain.RoleAdmin}, {ID: 2, Name: domain.RoleUser}}}
}

func (r *stubRoleRepo) List(_ context.Context) ([]domain.Role, error) {
	return slices.Clone(r.roles), nil
}

func (r *stubRoleRepo) FindByNames(_ context.Context, names []string) ([]domain.Role, error) {
	var out []domain.Role
	for _, role := range r.roles {
		if slices.Contains(names, role.Name) {
			out = append(out, role)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Hasher and session stubs
// ---------------------------------------------------------------------------

// countingHasher wraps a fast bcrypt hasher and counts Verify calls.
type countingHasher struct {
	inner        security.Hasher
	verifies     int
	lastVerified string
	hashErr      error // if set, Hash returns this error
}

func newCountingHasher() *countingHasher {
	return &countingHasher{inner: security.NewBcryptHasher(bcrypt.MinCost)}
}

func (h *countingHasher) Hash(plain string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return h.inner.Hash(plain)
}

func (h *countingHasher) Verify(plain, hash string) bool {
	h.verifies++
	h.lastVerified = hash
	return h.inner.Verify(plain, hash)
}

type stubSession struct {
	principal   *security.Principal
	binds       int
	invalidated bool
	bindErr     error
}

func (s *stubSession) Principal() (*security.Principal, bool) {
	return s.principal, s.principal != nil
}

func (s *stubSession) Bind(p security.Principal) error {
	if s.bindErr != nil {
		return s.bindErr
	}
	s.binds++
	s.principal = &p
	return nil
}

func (s *stubSession) Invalidate() error {
	s.invalidated = true
	s.principal = nil
	return nil
}

// seedUser stores a user with a real bcrypt hash of password.
func seedUser(t interface{ Fatalf(string, ...any) }, repo *stubUserRepo, h security.Hasher, username, email, password string, roles ...domain.Role) *domain.User {
	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    "First",
		LastName:     "Last",
		Roles:        roles,
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return u
}

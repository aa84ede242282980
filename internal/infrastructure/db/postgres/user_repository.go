package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kata/useradmin/internal/core/domain"
)

const (
	uniqueViolation = "23505"

	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

var userColumns = []string{"id", "username", "email", "password_hash", "first_name", "last_name", "age"}

// UserRepository implements ports.UserRepository on PostgreSQL.
type UserRepository struct {
	db DBInterface
}

func NewUserRepository(db DBInterface) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	FirstName    string `db:"first_name"`
	LastName     string `db:"last_name"`
	Age          int    `db:"age"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Age:          r.Age,
	}
}

type roleLink struct {
	UserID int64  `db:"user_id"`
	ID     int64  `db:"id"`
	Name   string `db:"name"`
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	query, args, err := squirrel.Select(userColumns...).
		From("users").
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var rows []userRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("scanning users: %w", err)
	}
	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	if err := r.loadRoles(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	query, args, err := squirrel.Select("count(*)").
		From("users").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}
	var n int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, squirrel.Eq{"username": username})
}

// FindByEmail matches case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, squirrel.Expr("lower(email) = lower(?)", email))
}

func (r *UserRepository) findOne(ctx context.Context, pred squirrel.Sqlizer) (*domain.User, error) {
	query, args, err := squirrel.Select(userColumns...).
		From("users").
		Where(pred).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var row userRow
	if err := pgxscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	u := row.toDomain()
	if err := r.loadRoles(ctx, []*domain.User{u}); err != nil {
		return nil, err
	}
	return u, nil
}

// loadRoles fills Roles on every user with a single query.
func (r *UserRepository) loadRoles(ctx context.Context, users []*domain.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]int64, len(users))
	byID := make(map[int64]*domain.User, len(users))
	for i, u := range users {
		ids[i] = u.ID
		byID[u.ID] = u
		u.Roles = []domain.Role{}
	}

	query, args, err := squirrel.Select("ur.user_id", "r.id", "r.name").
		From("users_roles ur").
		Join("roles r ON r.id = ur.role_id").
		Where(squirrel.Eq{"ur.user_id": ids}).
		OrderBy("r.id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building roles query: %w", err)
	}
	var links []roleLink
	if err := pgxscan.Select(ctx, r.db, &links, query, args...); err != nil {
		return fmt.Errorf("scanning user roles: %w", err)
	}
	for _, l := range links {
		if u, ok := byID[l.UserID]; ok {
			u.Roles = append(u.Roles, domain.Role{ID: l.ID, Name: l.Name})
		}
	}
	return nil
}

// Create inserts the user row and its role links in one transaction.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		query, args, err := squirrel.Insert("users").
			Columns("username", "email", "password_hash", "first_name", "last_name", "age").
			Values(u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Age).
			Suffix("RETURNING id").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("building insert query: %w", err)
		}
		if err := tx.QueryRow(ctx, query, args...).Scan(&u.ID); err != nil {
			return mapWriteErr("inserting user", err)
		}
		return insertRoleLinks(ctx, tx, u.ID, u.Roles)
	})
}

// Update overwrites the mutable columns and replaces the role links.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		query, args, err := squirrel.Update("users").
			Set("username", u.Username).
			Set("email", u.Email).
			Set("password_hash", u.PasswordHash).
			Set("first_name", u.FirstName).
			Set("last_name", u.LastName).
			Set("age", u.Age).
			Where(squirrel.Eq{"id": u.ID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("building update query: %w", err)
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return mapWriteErr("updating user", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
		if err := deleteRoleLinks(ctx, tx, u.ID); err != nil {
			return err
		}
		return insertRoleLinks(ctx, tx, u.ID, u.Roles)
	})
}

// Delete detaches the user's roles and removes the user. Roles themselves
// are never deleted.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := deleteRoleLinks(ctx, tx, id); err != nil {
			return err
		}
		query, args, err := squirrel.Delete("users").
			Where(squirrel.Eq{"id": id}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("building delete query: %w", err)
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

func insertRoleLinks(ctx context.Context, tx pgx.Tx, userID int64, roles []domain.Role) error {
	if len(roles) == 0 {
		return nil
	}
	qb := squirrel.Insert("users_roles").Columns("user_id", "role_id")
	for _, role := range roles {
		qb = qb.Values(userID, role.ID)
	}
	query, args, err := qb.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("building role link insert: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting role links: %w", err)
	}
	return nil
}

func deleteRoleLinks(ctx context.Context, tx pgx.Tx, userID int64) error {
	query, args, err := squirrel.Delete("users_roles").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building role link delete: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting role links: %w", err)
	}
	return nil
}

// mapWriteErr turns unique violations into domain errors.
func mapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case usernameConstraint:
			return domain.ErrUsernameTaken
		case emailConstraint:
			return domain.ErrEmailTaken
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

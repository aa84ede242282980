package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/kata/useradmin/internal/core/domain"
)

// RoleRepository implements ports.RoleRepository on PostgreSQL.
type RoleRepository struct {
	db DBInterface
}

func NewRoleRepository(db DBInterface) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	return r.selectRoles(ctx, nil)
}

func (r *RoleRepository) FindByNames(ctx context.Context, names []string) ([]domain.Role, error) {
	if len(names) == 0 {
		return []domain.Role{}, nil
	}
	return r.selectRoles(ctx, squirrel.Eq{"name": names})
}

func (r *RoleRepository) selectRoles(ctx context.Context, pred squirrel.Sqlizer) ([]domain.Role, error) {
	qb := squirrel.Select("id", "name").
		From("roles").
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar)
	if pred != nil {
		qb = qb.Where(pred)
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var roles []domain.Role
	if err := pgxscan.Select(ctx, r.db, &roles, query, args...); err != nil {
		return nil, fmt.Errorf("scanning roles: %w", err)
	}
	return roles, nil
}

package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/inkstone/identity/internal/common"
	"github.com/inkstone/identity/internal/dbx"
	"github.com/inkstone/identity/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	query := `
		SELECT id, name FROM roles
		WHERE name = $1
	`
	role := &models.Role{}
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&role.ID, &role.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return role, nil
}

func (r *PostgresRepository) ResolveForUser(ctx context.Context, userID string) (*models.RoleGrant, error) {
	query := `
		SELECT r.name, p.name
		FROM user_roles AS ur
		JOIN roles AS r ON r.id = ur.role_id
		JOIN role_permissions AS rp ON rp.role_id = r.id
		JOIN permissions AS p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	grant := &models.RoleGrant{}
	for rows.Next() {
		var permission string
		if err := rows.Scan(&grant.Role, &permission); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		grant.Permissions = append(grant.Permissions, permission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if grant.Role == "" {
		return nil, common.ErrorNotFound
	}
	return grant, nil
}

// Assign replaces the identity's role link. The unique key on user_id keeps
// this a single-row upsert, so an identity never holds two roles.
func (r *PostgresRepository) Assign(ctx context.Context, userID string, roleID int64) error {
	query := `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET role_id = excluded.role_id, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) PermissionsForRole(ctx context.Context, roleID int64) ([]string, error) {
	query := `
		SELECT p.name
		FROM role_permissions AS rp
		JOIN permissions AS p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		permissions = append(permissions, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return permissions, nil
}

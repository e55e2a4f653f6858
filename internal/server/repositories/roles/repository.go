// Package roles declares the repository contract for roles, permissions,
// and the one-active-role-per-identity link.
package roles

import (
	"context"

	"github.com/inkstone/identity/internal/server/models"
)

// Repository resolves and reassigns roles. Permission sets are always read
// through the role→permission join so a role change never serves stale
// permissions.
type Repository interface {
	// GetByName returns the role named name, or common.ErrorNotFound.
	GetByName(ctx context.Context, name string) (*models.Role, error)

	// ResolveForUser returns the identity's current role and its
	// permission set, or common.ErrorNotFound if the identity has no
	// role link.
	ResolveForUser(ctx context.Context, userID string) (*models.RoleGrant, error)

	// Assign links the identity to roleID, replacing any existing link.
	Assign(ctx context.Context, userID string, roleID int64) error

	// PermissionsForRole lists the permission names owned by roleID.
	PermissionsForRole(ctx context.Context, roleID int64) ([]string, error)
}

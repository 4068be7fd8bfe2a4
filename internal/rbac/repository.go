package rbac

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/eventhub/internal/platform/db"
	"github.com/eventhub/eventhub/internal/shared"
)

// PGStore implements Store and the permission catalog queries on PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PGStore.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// PrincipalGrants loads the user's flags and direct permission codenames.
func (s *PGStore) PrincipalGrants(ctx context.Context, userID uuid.UUID) (Grants, error) {
	var g Grants
	err := s.pool.QueryRow(ctx, `SELECT is_active, is_superuser FROM users
		WHERE id = $1 AND deleted_at IS NULL`, userID).Scan(&g.IsActive, &g.IsSuperuser)
	if err != nil {
		if db.IsNoRows(err) {
			return Grants{}, shared.ErrResourceNotFound
		}
		return Grants{}, fmt.Errorf("rbac: load user flags: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT p.codename FROM user_permissions up
		JOIN permissions p ON p.id = up.permission_id
		WHERE up.user_id = $1`, userID)
	if err != nil {
		return Grants{}, fmt.Errorf("rbac: load direct grants: %w", err)
	}
	g.Codenames, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return Grants{}, fmt.Errorf("rbac: scan direct grants: %w", err)
	}
	return g, nil
}

// PermissionDomains lists catalog domains declaring codename.
func (s *PGStore) PermissionDomains(ctx context.Context, codename string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT domain FROM permissions WHERE codename = $1 ORDER BY domain`, codename)
	if err != nil {
		return nil, fmt.Errorf("rbac: permission domains: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// ActiveRoleIDs returns role ids from live assignments to live roles.
func (s *PGStore) ActiveRoleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `SELECT ur.role_id FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		  AND ur.active AND ur.deleted_at IS NULL
		  AND r.active AND r.deleted_at IS NULL`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: active roles: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// RolesHold reports whether any role in roleIDs holds (domain, codename).
func (s *PGStore) RolesHold(ctx context.Context, roleIDs []uuid.UUID, domain, codename string) (bool, error) {
	var held bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ANY($1::uuid[]) AND p.domain = $2 AND p.codename = $3)`,
		roleIDs, domain, codename).Scan(&held)
	if err != nil {
		return false, fmt.Errorf("rbac: role permissions: %w", err)
	}
	return held, nil
}

// ListPermissions returns the catalog, optionally filtered by domain.
func (s *PGStore) ListPermissions(ctx context.Context, domain string) ([]Permission, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, codename, name, domain FROM permissions
		WHERE ($1::text = '' OR domain = $1::text)
		ORDER BY domain, codename`, domain)
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Permission, error) {
		var p Permission
		err := row.Scan(&p.ID, &p.Codename, &p.Name, &p.Domain)
		return p, err
	})
}

var _ Store = (*PGStore)(nil)

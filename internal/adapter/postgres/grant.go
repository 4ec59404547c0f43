package postgres

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GrantRepo manages role_permissions and user_roles and resolves the
// effective access of users through them.
type GrantRepo struct {
	db Querier
}

func NewGrantRepo(db Querier) *GrantRepo {
	return &GrantRepo{db: db}
}

// GrantPermissions links permissions to a role and returns how many links are new.
func (r *GrantRepo) GrantPermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) (int, error) {
	const q = `
		INSERT INTO role_permissions (role_id, permission_id, created_at)
		SELECT $1, unnest($2::uuid[]), now()
		ON CONFLICT DO NOTHING`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, roleID, permissionIDs)
	if err != nil {
		return 0, dbError("GrantRepo.GrantPermissions", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *GrantRepo) RevokePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) (int, error) {
	const q = `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = ANY($2)`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, roleID, permissionIDs)
	if err != nil {
		return 0, dbError("GrantRepo.RevokePermissions", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *GrantRepo) RolePermissions(ctx context.Context, roleID uuid.UUID) ([]*models.Permission, error) {
	q := `
		SELECT ` + prefixed("p", permissionColumns) + `
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1 AND NOT p.deleted
		ORDER BY p.key`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, roleID)
	if err != nil {
		return nil, dbError("GrantRepo.RolePermissions", err)
	}
	items, _, err := collect(rows, func(row pgx.Row, _ *int) (*models.Permission, error) {
		return scanPermission(row)
	})
	if err != nil {
		return nil, dbError("GrantRepo.RolePermissions", err)
	}
	return items, nil
}

func (r *GrantRepo) AssignUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) (int, error) {
	const q = `
		INSERT INTO user_roles (user_id, role_id, created_at)
		SELECT $1, unnest($2::uuid[]), now()
		ON CONFLICT DO NOTHING`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, userID, roleIDs)
	if err != nil {
		return 0, dbError("GrantRepo.AssignUserRoles", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *GrantRepo) RevokeUserRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) (int, error) {
	const q = `DELETE FROM user_roles WHERE user_id = $1 AND role_id = ANY($2)`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, userID, roleIDs)
	if err != nil {
		return 0, dbError("GrantRepo.RevokeUserRoles", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *GrantRepo) UserRoles(ctx context.Context, userID uuid.UUID) ([]*models.Role, error) {
	q := `
		SELECT ` + prefixed("r", roleColumns) + `
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1 AND NOT r.deleted
		ORDER BY r.name`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, userID)
	if err != nil {
		return nil, dbError("GrantRepo.UserRoles", err)
	}
	items, _, err := collect(rows, func(row pgx.Row, _ *int) (*models.Role, error) {
		return scanRole(row)
	})
	if err != nil {
		return nil, dbError("GrantRepo.UserRoles", err)
	}
	return items, nil
}

// UserRoleNames returns the names of the user's live roles.
func (r *GrantRepo) UserRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	const q = `
		SELECT DISTINCT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1 AND NOT r.deleted
		ORDER BY r.name`

	return r.strings(ctx, "GrantRepo.UserRoleNames", q, userID)
}

// UserPermissionKeys returns the keys granted to the user through any live role.
func (r *GrantRepo) UserPermissionKeys(ctx context.Context, userID uuid.UUID) ([]string, error) {
	const q = `
		SELECT DISTINCT p.key
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id AND NOT r.deleted
		JOIN role_permissions rp ON rp.role_id = r.id
		JOIN permissions p ON p.id = rp.permission_id AND NOT p.deleted
		WHERE ur.user_id = $1
		ORDER BY p.key`

	return r.strings(ctx, "GrantRepo.UserPermissionKeys", q, userID)
}

func (r *GrantRepo) strings(ctx context.Context, op, q string, args ...any) ([]string, error) {
	rows, err := TxorDB(ctx, r.db).Query(ctx, q, args...)
	if err != nil {
		return nil, dbError(op, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dbError(op, err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

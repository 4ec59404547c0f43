package postgres

import (
	"context"
	"errors"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PermissionRepo struct {
	db Querier
}

func NewPermissionRepo(db Querier) *PermissionRepo {
	return &PermissionRepo{db: db}
}

const permissionColumns = `id, service_id, key, resource, action, description, type, deleted, created_at, updated_at`

func scanPermission(row pgx.Row, extra ...any) (*models.Permission, error) {
	var p models.Permission
	dest := append([]any{
		&p.ID, &p.ServiceID, &p.Key, &p.Resource, &p.Action,
		&p.Description, &p.Type, &p.Deleted, &p.CreatedAt, &p.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepo) Create(ctx context.Context, p *models.Permission) error {
	const q = `
		INSERT INTO permissions (id, service_id, key, resource, action, description, type, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q,
		p.ID, p.ServiceID, p.Key, p.Resource, p.Action,
		p.Description, p.Type, p.Deleted, p.CreatedAt, p.UpdatedAt,
	)
	return dbError("PermissionRepo.Create", err)
}

func (r *PermissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Permission, error) {
	return r.getOne(ctx, "PermissionRepo.GetByID", `id = $1`, id)
}

func (r *PermissionRepo) GetByKey(ctx context.Context, key string) (*models.Permission, error) {
	return r.getOne(ctx, "PermissionRepo.GetByKey", `key = $1`, key)
}

func (r *PermissionRepo) getOne(ctx context.Context, op, cond string, arg any) (*models.Permission, error) {
	q := `SELECT ` + permissionColumns + ` FROM permissions WHERE ` + cond

	p, err := scanPermission(TxorDB(ctx, r.db).QueryRow(ctx, q, arg))
	if err != nil {
		return nil, dbError(op, err)
	}
	return p, nil
}

// GetByIDs returns the live permissions among ids.
func (r *PermissionRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Permission, error) {
	return r.getMany(ctx, "PermissionRepo.GetByIDs", `id = ANY($1) AND NOT deleted`, ids)
}

// GetByKeys returns the permissions among keys, deleted ones included, so
// callers do not try to recreate them.
func (r *PermissionRepo) GetByKeys(ctx context.Context, keys []string) ([]*models.Permission, error) {
	return r.getMany(ctx, "PermissionRepo.GetByKeys", `key = ANY($1)`, keys)
}

func (r *PermissionRepo) getMany(ctx context.Context, op, cond string, arg any) ([]*models.Permission, error) {
	q := `SELECT ` + permissionColumns + ` FROM permissions WHERE ` + cond + ` ORDER BY key`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, arg)
	if err != nil {
		return nil, dbError(op, err)
	}
	items, _, err := collect(rows, func(row pgx.Row, _ *int) (*models.Permission, error) {
		return scanPermission(row)
	})
	if err != nil {
		return nil, dbError(op, err)
	}
	return items, nil
}

func (r *PermissionRepo) ExistingKeys(ctx context.Context, keys []string) ([]string, error) {
	const q = `SELECT key FROM permissions WHERE key = ANY($1) AND NOT deleted`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, keys)
	if err != nil {
		return nil, dbError("PermissionRepo.ExistingKeys", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dbError("PermissionRepo.ExistingKeys", err)
	}
	return out, nil
}

func (r *PermissionRepo) List(ctx context.Context, filter models.PermissionFilter) ([]*models.Permission, int, error) {
	var w where
	if !filter.IncludeDeleted {
		w.raw("NOT deleted")
	}
	if filter.ServiceID != nil {
		w.add("service_id = ?", *filter.ServiceID)
	}
	if filter.Resource != "" {
		w.add("resource = ?", filter.Resource)
	}
	if filter.Type != "" {
		w.add("type = ?", filter.Type)
	}
	lq := listQuery{op: "PermissionRepo.List", columns: permissionColumns, from: "permissions"}
	return list(ctx, TxorDB(ctx, r.db), lq, &w, filter.Filters, func(row pgx.Row, total *int) (*models.Permission, error) {
		return scanPermission(row, total)
	})
}

func (r *PermissionRepo) Update(ctx context.Context, p *models.Permission) error {
	const q = `
		UPDATE permissions
		SET description = $2, deleted = $3, updated_at = $4
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, p.ID, p.Description, p.Deleted, p.UpdatedAt)
	if err != nil {
		return dbError("PermissionRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return dbError("PermissionRepo.Update", pgx.ErrNoRows)
	}
	return nil
}

// UpsertUsage replaces the locations a service reported for a key.
func (r *PermissionRepo) UpsertUsage(ctx context.Context, u *models.PermissionUsage) error {
	if u == nil {
		return errors.New("nil usage")
	}
	const q = `
		INSERT INTO permission_usages (permission_key, service_name, locations, last_scanned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (permission_key, service_name)
		DO UPDATE SET locations = EXCLUDED.locations, last_scanned_at = EXCLUDED.last_scanned_at`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q, u.PermissionKey, u.ServiceName, u.Locations, u.LastScannedAt)
	return dbError("PermissionRepo.UpsertUsage", err)
}

func (r *PermissionRepo) ListUsages(ctx context.Context, key string) ([]*models.PermissionUsage, error) {
	const q = `
		SELECT permission_key, service_name, locations, last_scanned_at
		FROM permission_usages
		WHERE permission_key = $1
		ORDER BY service_name`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, key)
	if err != nil {
		return nil, dbError("PermissionRepo.ListUsages", err)
	}
	items, _, err := collect(rows, func(row pgx.Row, _ *int) (*models.PermissionUsage, error) {
		var u models.PermissionUsage
		if err := row.Scan(&u.PermissionKey, &u.ServiceName, &u.Locations, &u.LastScannedAt); err != nil {
			return nil, err
		}
		return &u, nil
	})
	if err != nil {
		return nil, dbError("PermissionRepo.ListUsages", err)
	}
	return items, nil
}

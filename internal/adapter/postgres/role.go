package postgres

import (
	"context"
	"errors"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RoleRepo struct {
	db Querier
}

func NewRoleRepo(db Querier) *RoleRepo {
	return &RoleRepo{db: db}
}

const roleColumns = `id, tenant_id, service_id, name, display_name, description, type, deleted, created_at, updated_at`

func scanRole(row pgx.Row, extra ...any) (*models.Role, error) {
	var r models.Role
	dest := append([]any{
		&r.ID, &r.TenantID, &r.ServiceID, &r.Name, &r.DisplayName,
		&r.Description, &r.Type, &r.Deleted, &r.CreatedAt, &r.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *RoleRepo) Create(ctx context.Context, role *models.Role) error {
	const q = `
		INSERT INTO roles (id, tenant_id, service_id, name, display_name, description, type, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q,
		role.ID, role.TenantID, role.ServiceID, role.Name, role.DisplayName,
		role.Description, role.Type, role.Deleted, role.CreatedAt, role.UpdatedAt,
	)
	return dbError("RoleRepo.Create", err)
}

func (r *RoleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	q := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`

	role, err := scanRole(TxorDB(ctx, r.db).QueryRow(ctx, q, id))
	if err != nil {
		return nil, dbError("RoleRepo.GetByID", err)
	}
	return role, nil
}

// GetByIDs returns the live roles among ids. Unknown ids are skipped.
func (r *RoleRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Role, error) {
	q := `SELECT ` + roleColumns + ` FROM roles WHERE id = ANY($1) AND NOT deleted`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, ids)
	if err != nil {
		return nil, dbError("RoleRepo.GetByIDs", err)
	}
	items, _, err := collect(rows, func(row pgx.Row, _ *int) (*models.Role, error) {
		return scanRole(row)
	})
	if err != nil {
		return nil, dbError("RoleRepo.GetByIDs", err)
	}
	return items, nil
}

// FindServiceRole returns the GLOBAL role called name of a service, or nil.
func (r *RoleRepo) FindServiceRole(ctx context.Context, serviceID uuid.UUID, name string) (*models.Role, error) {
	q := `
		SELECT ` + roleColumns + `
		FROM roles
		WHERE service_id = $1 AND tenant_id IS NULL AND name = $2 AND NOT deleted`

	role, err := scanRole(TxorDB(ctx, r.db).QueryRow(ctx, q, serviceID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dbError("RoleRepo.FindServiceRole", err)
	}
	return role, nil
}

func (r *RoleRepo) List(ctx context.Context, filter models.RoleFilter) ([]*models.Role, int, error) {
	var w where
	w.raw("NOT deleted")
	if filter.TenantID != nil {
		if filter.WithGlobal {
			w.add("(tenant_id = ? OR tenant_id IS NULL)", *filter.TenantID)
		} else {
			w.add("tenant_id = ?", *filter.TenantID)
		}
	}
	if filter.ServiceID != nil {
		w.add("service_id = ?", *filter.ServiceID)
	}
	if filter.Name != "" {
		w.add("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Type != "" {
		w.add("type = ?", filter.Type)
	}
	lq := listQuery{op: "RoleRepo.List", columns: roleColumns, from: "roles"}
	return list(ctx, TxorDB(ctx, r.db), lq, &w, filter.Filters, func(row pgx.Row, total *int) (*models.Role, error) {
		return scanRole(row, total)
	})
}

func (r *RoleRepo) Update(ctx context.Context, role *models.Role) error {
	const q = `
		UPDATE roles
		SET display_name = $2, description = $3, deleted = $4, updated_at = $5
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, role.ID, role.DisplayName, role.Description, role.Deleted, role.UpdatedAt)
	if err != nil {
		return dbError("RoleRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return dbError("RoleRepo.Update", pgx.ErrNoRows)
	}
	return nil
}

package postgres

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TenantRepo struct {
	db Querier
}

func NewTenantRepo(db Querier) *TenantRepo {
	return &TenantRepo{db: db}
}

const tenantColumns = `id, name, status, created_at, updated_at`

func scanTenant(row pgx.Row, extra ...any) (*models.Tenant, error) {
	var t models.Tenant
	dest := append([]any{&t.ID, &t.Name, &t.Status, &t.CreatedAt, &t.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepo) Create(ctx context.Context, t *models.Tenant) error {
	const q = `
		INSERT INTO tenants (id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q, t.ID, t.Name, t.Status, t.CreatedAt, t.UpdatedAt)
	return dbError("TenantRepo.Create", err)
}

func (r *TenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	q := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	t, err := scanTenant(TxorDB(ctx, r.db).QueryRow(ctx, q, id))
	if err != nil {
		return nil, dbError("TenantRepo.GetByID", err)
	}
	return t, nil
}

func (r *TenantRepo) List(ctx context.Context, filter models.TenantFilter) ([]*models.Tenant, int, error) {
	var w where
	if filter.ID != nil {
		w.add("id = ?", *filter.ID)
	}
	if filter.Name != "" {
		w.add("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	lq := listQuery{op: "TenantRepo.List", columns: tenantColumns, from: "tenants"}
	return list(ctx, TxorDB(ctx, r.db), lq, &w, filter.Filters, func(row pgx.Row, total *int) (*models.Tenant, error) {
		return scanTenant(row, total)
	})
}

func (r *TenantRepo) Update(ctx context.Context, t *models.Tenant) error {
	const q = `
		UPDATE tenants
		SET name = $2, status = $3, updated_at = $4
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, t.ID, t.Name, t.Status, t.UpdatedAt)
	if err != nil {
		return dbError("TenantRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return dbError("TenantRepo.Update", pgx.ErrNoRows)
	}
	return nil
}

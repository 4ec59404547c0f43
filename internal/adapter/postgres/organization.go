package postgres

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OrganizationRepo struct {
	db Querier
}

func NewOrganizationRepo(db Querier) *OrganizationRepo {
	return &OrganizationRepo{db: db}
}

const organizationColumns = `id, tenant_id, name, status, created_at, updated_at`

func scanOrganization(row pgx.Row, extra ...any) (*models.Organization, error) {
	var o models.Organization
	dest := append([]any{&o.ID, &o.TenantID, &o.Name, &o.Status, &o.CreatedAt, &o.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrganizationRepo) Create(ctx context.Context, o *models.Organization) error {
	const q = `
		INSERT INTO organizations (id, tenant_id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q, o.ID, o.TenantID, o.Name, o.Status, o.CreatedAt, o.UpdatedAt)
	return dbError("OrganizationRepo.Create", err)
}

func (r *OrganizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	q := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`

	o, err := scanOrganization(TxorDB(ctx, r.db).QueryRow(ctx, q, id))
	if err != nil {
		return nil, dbError("OrganizationRepo.GetByID", err)
	}
	return o, nil
}

func (r *OrganizationRepo) List(ctx context.Context, filter models.OrganizationFilter) ([]*models.Organization, int, error) {
	var w where
	if filter.TenantID != nil {
		w.add("tenant_id = ?", *filter.TenantID)
	}
	if filter.Name != "" {
		w.add("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	lq := listQuery{op: "OrganizationRepo.List", columns: organizationColumns, from: "organizations"}
	return list(ctx, TxorDB(ctx, r.db), lq, &w, filter.Filters, func(row pgx.Row, total *int) (*models.Organization, error) {
		return scanOrganization(row, total)
	})
}

func (r *OrganizationRepo) Update(ctx context.Context, o *models.Organization) error {
	const q = `
		UPDATE organizations
		SET name = $2, status = $3, updated_at = $4
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, o.ID, o.Name, o.Status, o.UpdatedAt)
	if err != nil {
		return dbError("OrganizationRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return dbError("OrganizationRepo.Update", pgx.ErrNoRows)
	}
	return nil
}

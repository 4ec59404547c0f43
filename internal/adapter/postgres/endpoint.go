package postgres

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type EndpointRepo struct {
	db Querier
}

func NewEndpointRepo(db Querier) *EndpointRepo {
	return &EndpointRepo{db: db}
}

// Endpoint rows are always read joined with their permission key.
const (
	endpointColumns = `e.id, e.permission_id, p.key, e.service_name, e.url_pattern, e.http_method,
	       e.description, e.is_public, e.deleted, e.created_at, e.updated_at`
	endpointFrom   = `permission_endpoints e JOIN permissions p ON p.id = e.permission_id`
	endpointSelect = `SELECT ` + endpointColumns
)

func scanEndpoint(row pgx.Row, extra ...any) (*models.PermissionEndpoint, error) {
	var e models.PermissionEndpoint
	dest := append([]any{
		&e.ID, &e.PermissionID, &e.PermissionKey, &e.ServiceName, &e.URLPattern, &e.HTTPMethod,
		&e.Description, &e.IsPublic, &e.Deleted, &e.CreatedAt, &e.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EndpointRepo) Create(ctx context.Context, e *models.PermissionEndpoint) error {
	const q = `
		INSERT INTO permission_endpoints
			(id, permission_id, service_name, url_pattern, http_method, description, is_public, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q,
		e.ID, e.PermissionID, e.ServiceName, e.URLPattern, e.HTTPMethod,
		e.Description, e.IsPublic, e.Deleted, e.CreatedAt, e.UpdatedAt,
	)
	return dbError("EndpointRepo.Create", err)
}

func (r *EndpointRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PermissionEndpoint, error) {
	q := endpointSelect + ` FROM ` + endpointFrom + `
		WHERE e.id = $1`

	e, err := scanEndpoint(TxorDB(ctx, r.db).QueryRow(ctx, q, id))
	if err != nil {
		return nil, dbError("EndpointRepo.GetByID", err)
	}
	return e, nil
}

func (r *EndpointRepo) List(ctx context.Context, filter models.EndpointFilter) ([]*models.PermissionEndpoint, int, error) {
	var w where
	w.raw("NOT e.deleted")
	if filter.ServiceName != "" {
		w.add("e.service_name = ?", filter.ServiceName)
	}
	if filter.PermissionID != nil {
		w.add("e.permission_id = ?", *filter.PermissionID)
	}
	if filter.Method != "" {
		w.add("e.http_method = ?", filter.Method)
	}
	if filter.IsPublic != nil {
		w.add("e.is_public = ?", *filter.IsPublic)
	}
	lq := listQuery{op: "EndpointRepo.List", columns: endpointColumns, from: endpointFrom, alias: "e"}
	return list(ctx, TxorDB(ctx, r.db), lq, &w, filter.Filters, func(row pgx.Row, total *int) (*models.PermissionEndpoint, error) {
		return scanEndpoint(row, total)
	})
}

// ListActive returns all live endpoints, optionally of one service.
func (r *EndpointRepo) ListActive(ctx context.Context, serviceName string) ([]*models.PermissionEndpoint, error) {
	q := endpointSelect + ` FROM ` + endpointFrom + `
		WHERE NOT e.deleted AND ($1 = '' OR e.service_name = $1)
		ORDER BY e.service_name, e.url_pattern, e.http_method`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, serviceName)
	if err != nil {
		return nil, dbError("EndpointRepo.ListActive", err)
	}
	items, _, err := collect(rows, func(row pgx.Row, _ *int) (*models.PermissionEndpoint, error) {
		return scanEndpoint(row)
	})
	if err != nil {
		return nil, dbError("EndpointRepo.ListActive", err)
	}
	return items, nil
}

func (r *EndpointRepo) Update(ctx context.Context, e *models.PermissionEndpoint) error {
	const q = `
		UPDATE permission_endpoints
		SET url_pattern = $2, http_method = $3, description = $4, is_public = $5, deleted = $6, updated_at = $7
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, e.ID, e.URLPattern, e.HTTPMethod, e.Description, e.IsPublic, e.Deleted, e.UpdatedAt)
	if err != nil {
		return dbError("EndpointRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return dbError("EndpointRepo.Update", pgx.ErrNoRows)
	}
	return nil
}

package postgres

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ServiceRepo stores registered client services.
type ServiceRepo struct {
	db Querier
}

func NewServiceRepo(db Querier) *ServiceRepo {
	return &ServiceRepo{db: db}
}

const serviceColumns = `id, code, name, description, status, created_at, updated_at`

func scanService(row pgx.Row, extra ...any) (*models.Service, error) {
	var s models.Service
	dest := append([]any{&s.ID, &s.Code, &s.Name, &s.Description, &s.Status, &s.CreatedAt, &s.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServiceRepo) Create(ctx context.Context, s *models.Service) error {
	const q = `
		INSERT INTO services (id, code, name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q, s.ID, s.Code, s.Name, s.Description, s.Status, s.CreatedAt, s.UpdatedAt)
	return dbError("ServiceRepo.Create", err)
}

func (r *ServiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	q := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	s, err := scanService(TxorDB(ctx, r.db).QueryRow(ctx, q, id))
	if err != nil {
		return nil, dbError("ServiceRepo.GetByID", err)
	}
	return s, nil
}

func (r *ServiceRepo) GetByCode(ctx context.Context, code string) (*models.Service, error) {
	q := `SELECT ` + serviceColumns + ` FROM services WHERE code = $1`

	s, err := scanService(TxorDB(ctx, r.db).QueryRow(ctx, q, code))
	if err != nil {
		return nil, dbError("ServiceRepo.GetByCode", err)
	}
	return s, nil
}

func (r *ServiceRepo) List(ctx context.Context, filter models.ServiceFilter) ([]*models.Service, int, error) {
	var w where
	if filter.Name != "" {
		w.add("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	lq := listQuery{op: "ServiceRepo.List", columns: serviceColumns, from: "services"}
	return list(ctx, TxorDB(ctx, r.db), lq, &w, filter.Filters, func(row pgx.Row, total *int) (*models.Service, error) {
		return scanService(row, total)
	})
}

func (r *ServiceRepo) Update(ctx context.Context, s *models.Service) error {
	const q = `
		UPDATE services
		SET name = $2, description = $3, status = $4, updated_at = $5
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, s.ID, s.Name, s.Description, s.Status, s.UpdatedAt)
	if err != nil {
		return dbError("ServiceRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return dbError("ServiceRepo.Update", pgx.ErrNoRows)
	}
	return nil
}

package postgres

import (
	"context"
	"strings"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepo struct {
	db Querier
}

func NewUserRepo(db Querier) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, tenant_id, organization_id, email, password_hash, type, status, name, phone, created_at, updated_at`

func scanUser(row pgx.Row, extra ...any) (*models.User, error) {
	var u models.User
	dest := append([]any{
		&u.ID, &u.TenantID, &u.OrganizationID, &u.Email, &u.PasswordHash,
		&u.Type, &u.Status, &u.Name, &u.Phone, &u.CreatedAt, &u.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	const q = `
		INSERT INTO users (id, tenant_id, organization_id, email, password_hash, type, status, name, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q,
		u.ID, u.TenantID, u.OrganizationID, u.Email, u.PasswordHash,
		u.Type, u.Status, u.Name, u.Phone, u.CreatedAt, u.UpdatedAt,
	)
	return dbError("UserRepo.Create", err)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(TxorDB(ctx, r.db).QueryRow(ctx, q, id))
	if err != nil {
		return nil, dbError("UserRepo.GetByID", err)
	}
	return u, nil
}

// GetByEmail looks a user up case-insensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = $1`

	u, err := scanUser(TxorDB(ctx, r.db).QueryRow(ctx, q, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return nil, dbError("UserRepo.GetByEmail", err)
	}
	return u, nil
}

func (r *UserRepo) List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error) {
	var w where
	if filter.TenantID != nil {
		w.add("tenant_id = ?", *filter.TenantID)
	}
	if filter.OrganizationID != nil {
		w.add("organization_id = ?", *filter.OrganizationID)
	}
	if filter.Email != "" {
		w.add("email ILIKE ?", "%"+filter.Email+"%")
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	lq := listQuery{op: "UserRepo.List", columns: userColumns, from: "users"}
	return list(ctx, TxorDB(ctx, r.db), lq, &w, filter.Filters, func(row pgx.Row, total *int) (*models.User, error) {
		return scanUser(row, total)
	})
}

func (r *UserRepo) Update(ctx context.Context, u *models.User) error {
	const q = `
		UPDATE users
		SET password_hash = $2, status = $3, name = $4, phone = $5, updated_at = $6
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, u.ID, u.PasswordHash, u.Status, u.Name, u.Phone, u.UpdatedAt)
	if err != nil {
		return dbError("UserRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return dbError("UserRepo.Update", pgx.ErrNoRows)
	}
	return nil
}

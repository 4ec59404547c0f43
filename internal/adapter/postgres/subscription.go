package postgres

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SubscriptionRepo stores tenant_services, the services each tenant uses.
type SubscriptionRepo struct {
	db Querier
}

func NewSubscriptionRepo(db Querier) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

const (
	subscriptionColumns = `ts.id, ts.tenant_id, ts.service_id, s.code, ts.status, ts.subscribed_at, ts.created_at, ts.updated_at`
	subscriptionFrom    = `tenant_services ts JOIN services s ON s.id = ts.service_id`
)

func scanSubscription(row pgx.Row, extra ...any) (*models.Subscription, error) {
	var s models.Subscription
	dest := append([]any{
		&s.ID, &s.TenantID, &s.ServiceID, &s.ServiceCode, &s.Status, &s.SubscribedAt, &s.CreatedAt, &s.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionRepo) Create(ctx context.Context, s *models.Subscription) error {
	const q = `
		INSERT INTO tenant_services (id, tenant_id, service_id, status, subscribed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q, s.ID, s.TenantID, s.ServiceID, s.Status, s.SubscribedAt, s.CreatedAt, s.UpdatedAt)
	return dbError("SubscriptionRepo.Create", err)
}

func (r *SubscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM ` + subscriptionFrom + ` WHERE ts.id = $1`

	s, err := scanSubscription(TxorDB(ctx, r.db).QueryRow(ctx, q, id))
	if err != nil {
		return nil, dbError("SubscriptionRepo.GetByID", err)
	}
	return s, nil
}

func (r *SubscriptionRepo) List(ctx context.Context, filter models.SubscriptionFilter) ([]*models.Subscription, int, error) {
	var w where
	if filter.TenantID != nil {
		w.add("ts.tenant_id = ?", *filter.TenantID)
	}
	if filter.ServiceID != nil {
		w.add("ts.service_id = ?", *filter.ServiceID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = st.String()
		}
		w.add("ts.status = ANY(?)", statuses)
	}
	if filter.From != nil {
		w.add("ts.subscribed_at >= ?", *filter.From)
	}
	if filter.To != nil {
		w.add("ts.subscribed_at <= ?", *filter.To)
	}
	lq := listQuery{op: "SubscriptionRepo.List", columns: subscriptionColumns, from: subscriptionFrom, alias: "ts"}
	return list(ctx, TxorDB(ctx, r.db), lq, &w, filter.Filters, func(row pgx.Row, total *int) (*models.Subscription, error) {
		return scanSubscription(row, total)
	})
}

// ActiveServiceCodes returns the codes of the active services tenantID has an
// active subscription to.
func (r *SubscriptionRepo) ActiveServiceCodes(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	const q = `
		SELECT s.code
		FROM tenant_services ts
		JOIN services s ON s.id = ts.service_id
		WHERE ts.tenant_id = $1 AND ts.status = 'ACTIVE' AND s.status = 'ACTIVE'
		ORDER BY s.code`

	rows, err := TxorDB(ctx, r.db).Query(ctx, q, tenantID)
	if err != nil {
		return nil, dbError("SubscriptionRepo.ActiveServiceCodes", err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dbError("SubscriptionRepo.ActiveServiceCodes", err)
	}
	return codes, nil
}

func (r *SubscriptionRepo) Update(ctx context.Context, s *models.Subscription) error {
	const q = `
		UPDATE tenant_services
		SET status = $2, updated_at = $3
		WHERE id = $1`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, s.ID, s.Status, s.UpdatedAt)
	if err != nil {
		return dbError("SubscriptionRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return dbError("SubscriptionRepo.Update", pgx.ErrNoRows)
	}
	return nil
}

package postgres

import (
	"context"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/jackc/pgx/v5"
)

type AuditRepo struct {
	db Querier
}

func NewAuditRepo(db Querier) *AuditRepo {
	return &AuditRepo{db: db}
}

const auditColumns = `id, user_id, action_type, resource_type, resource_id, ip, user_agent, method, endpoint, status, duration_ms, request_id, occurred_at`

// Insert is idempotent on id so redelivered broker messages are harmless.
func (r *AuditRepo) Insert(ctx context.Context, e *models.AuditLog) error {
	q := `INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q,
		e.ID, e.UserID, e.ActionType, e.ResourceType, e.ResourceID, e.IP, e.UserAgent,
		e.Method, e.Endpoint, e.Status, e.DurationMs, e.RequestID, e.OccurredAt,
	)
	return dbError("AuditRepo.Insert", err)
}

func (r *AuditRepo) Search(ctx context.Context, filter models.AuditFilter) ([]*models.AuditLog, int, error) {
	var w where
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.ActionType != "" {
		w.add("action_type = ?", filter.ActionType)
	}
	if filter.ResourceType != "" {
		w.add("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		w.add("resource_id = ?", filter.ResourceID)
	}
	if filter.IP != "" {
		w.add("ip = ?", filter.IP)
	}
	if filter.From != nil {
		w.add("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		w.add("occurred_at <= ?", *filter.To)
	}
	lq := listQuery{op: "AuditRepo.Search", columns: auditColumns, from: "audit_logs"}
	return list(ctx, TxorDB(ctx, r.db), lq, &w, filter.Filters, func(row pgx.Row, total *int) (*models.AuditLog, error) {
		var e models.AuditLog
		err := row.Scan(
			&e.ID, &e.UserID, &e.ActionType, &e.ResourceType, &e.ResourceID, &e.IP, &e.UserAgent,
			&e.Method, &e.Endpoint, &e.Status, &e.DurationMs, &e.RequestID, &e.OccurredAt, total,
		)
		return &e, err
	})
}

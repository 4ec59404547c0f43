package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RefreshTokenRepo struct {
	db Querier
}

func NewRefreshTokenRepo(db Querier) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

func (r *RefreshTokenRepo) Save(ctx context.Context, record *models.RefreshTokenRecord) error {
	if record == nil {
		return errors.New("refresh token record is nil")
	}

	const q = `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
		ON CONFLICT (id)
		DO UPDATE SET
			token_hash = EXCLUDED.token_hash,
			expires_at = EXCLUDED.expires_at,
			revoked = false,
			last_used_at = NULL`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q, record.ID, record.UserID, record.TokenHash, record.ExpiresAt, record.CreatedAt)
	return dbError("RefreshTokenRepo.Save", err)
}

// Get returns nil, nil for unknown tokens.
func (r *RefreshTokenRepo) Get(ctx context.Context, tokenID uuid.UUID) (*models.RefreshTokenRecord, error) {
	// FOR UPDATE serialises concurrent refreshes of the same token inside a transaction.
	const q = `
		SELECT id, user_id, token_hash, expires_at, revoked, created_at, last_used_at
		FROM refresh_tokens
		WHERE id = $1
		FOR UPDATE`

	var rec models.RefreshTokenRecord
	err := TxorDB(ctx, r.db).QueryRow(ctx, q, tokenID).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.TokenHash,
		&rec.ExpiresAt,
		&rec.Revoked,
		&rec.CreatedAt,
		&rec.LastUsed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dbError("RefreshTokenRepo.Get", err)
	}

	rec.ExpiresAt = rec.ExpiresAt.UTC()
	if rec.LastUsed != nil {
		ts := rec.LastUsed.UTC()
		rec.LastUsed = &ts
	}
	return &rec, nil
}

// MarkUsed revokes a token after it has been presented once.
func (r *RefreshTokenRepo) MarkUsed(ctx context.Context, tokenID uuid.UUID) error {
	const q = `
		UPDATE refresh_tokens
		SET revoked = true,
		    last_used_at = $2
		WHERE id = $1`

	_, err := TxorDB(ctx, r.db).Exec(ctx, q, tokenID, time.Now().UTC())
	return dbError("RefreshTokenRepo.MarkUsed", err)
}

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const q = `
		UPDATE refresh_tokens
		SET revoked = true
		WHERE user_id = $1 AND NOT revoked`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, q, userID)
	if err != nil {
		return 0, dbError("RefreshTokenRepo.RevokeAllForUser", err)
	}
	return tag.RowsAffected(), nil
}

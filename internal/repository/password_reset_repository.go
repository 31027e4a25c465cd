package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"venuemap/internal/models"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error
	GetValidByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id string, usedAt time.Time) error
	InvalidateForUser(ctx context.Context, userID string, at time.Time) error
}

type passwordResetRepository struct {
	db *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, token *models.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedAt,
	).Scan(&token.CreatedAt)
}

func (r *passwordResetRepository) GetValidByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordResetToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, used_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1
		AND used_at IS NULL
		AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var t models.PasswordResetToken
	var usedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, tokenHash, now).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &usedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.UsedAt = timePtr(usedAt)
	return &t, nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used_at = $1 WHERE id = $2 AND used_at IS NULL`,
		usedAt, id,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// InvalidateForUser marks every outstanding token of the user as used, so
// only the newest reset email works.
func (r *passwordResetRepository) InvalidateForUser(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used_at = $1 WHERE user_id = $2 AND used_at IS NULL`,
		at, userID,
	)
	return err
}

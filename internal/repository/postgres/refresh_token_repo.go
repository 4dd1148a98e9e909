package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	domainauth "github.com/NordCoder/Vidtube/internal/domain/auth"
	"github.com/NordCoder/Vidtube/internal/domain/user"
)

var _ domainauth.RefreshTokenRepo = (*RefreshTokenRepo)(nil)

// RefreshTokenRepo manages users.refresh_token. There is one slot per user.
type RefreshTokenRepo struct{ db *DB }

func NewRefreshTokenRepo(db *DB) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

const (
	qRTSet = `
UPDATE users
SET refresh_token = $2,
    updated_at    = NOW()
WHERE id = $1;`

	qRTSwap = `
UPDATE users
SET refresh_token = $3,
    updated_at    = NOW()
WHERE id = $1 AND refresh_token = $2;`
)

func (r *RefreshTokenRepo) SetRefreshToken(ctx context.Context, userID string, token *string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return user.ErrNotFound
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qRTSet, userID, token)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// SwapRefreshToken is a compare-and-set: a concurrent rotation that already
// replaced presented makes this one affect zero rows.
func (r *RefreshTokenRepo) SwapRefreshToken(ctx context.Context, userID, presented, next string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return user.ErrNotFound
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qRTSwap, userID, presented, next)
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrRefreshMismatch
	}
	return nil
}

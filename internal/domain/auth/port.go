package auth

import "context"

// RefreshTokenRepo owns the single refresh-token slot of a user.
type RefreshTokenRepo interface {
	// SetRefreshToken overwrites the slot; nil clears it.
	SetRefreshToken(ctx context.Context, userID string, token *string) error
	// SwapRefreshToken replaces presented with next only if the slot still
	// holds presented. Otherwise it returns user.ErrRefreshMismatch.
	SwapRefreshToken(ctx context.Context, userID, presented, next string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

type Transactor interface {
	WithTx(ctx context.Context, function func(ctx context.Context) error) error
}

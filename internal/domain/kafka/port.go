package kafka

import "context"

type AuthEvents interface {
	PublishAuthEvent(ctx context.Context, userID string, payload []byte) error
}

package kafka

import (
	"context"

	"github.com/NordCoder/Vidtube/internal/domain/kafka"
)

type AuthEventsKafka struct {
	p *Producer
}

func NewAuthEventsKafka(p *Producer) *AuthEventsKafka { return &AuthEventsKafka{p: p} }

var _ kafka.AuthEvents = (*AuthEventsKafka)(nil)

// PublishAuthEvent keys by user id so one user's events stay ordered.
func (e *AuthEventsKafka) PublishAuthEvent(ctx context.Context, userID string, payload []byte) error {
	return e.p.Publish(ctx, []byte(userID), payload)
}

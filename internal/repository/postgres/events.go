package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	domainauth "github.com/NordCoder/Vidtube/internal/domain/auth"
	"github.com/NordCoder/Vidtube/internal/domain/outbox"
)

var _ domainauth.EventPublisher = (*AuthEventOutbox)(nil)

// AuthEventOutbox stores auth events in the outbox table. Called inside
// Transactor.WithTx, the event commits or rolls back with the state change.
type AuthEventOutbox struct {
	repo outbox.Repository
}

func NewAuthEventOutbox(repo outbox.Repository) *AuthEventOutbox {
	return &AuthEventOutbox{repo: repo}
}

func (p *AuthEventOutbox) Publish(ctx context.Context, e domainauth.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal auth event: %w", err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	return p.repo.Enqueue(ctx, outbox.Message{
		IdempotencyKey: e.ID,
		Kind:           outbox.KindAuthEvent,
		Data:           data,
		Traceparent:    carrier.Get("traceparent"),
		Tracestate:     carrier.Get("tracestate"),
		Baggage:        carrier.Get("baggage"),
	})
}

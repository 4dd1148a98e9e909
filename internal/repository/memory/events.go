package memory

import (
	"context"
	"sync"

	domainauth "github.com/NordCoder/Vidtube/internal/domain/auth"
)

var (
	_ domainauth.EventPublisher = (*EventRecorder)(nil)
	_ domainauth.Transactor     = Transactor{}
)

// EventRecorder keeps published auth events in memory.
type EventRecorder struct {
	mu     sync.Mutex
	events []domainauth.Event
}

func NewEventRecorder() *EventRecorder { return &EventRecorder{} }

func (r *EventRecorder) Publish(_ context.Context, e domainauth.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *EventRecorder) Events() []domainauth.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domainauth.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *EventRecorder) Types() []domainauth.EventType {
	evs := r.Events()
	out := make([]domainauth.EventType, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.Type)
	}
	return out
}

// Transactor runs the function directly. Each store call is atomic on its own.
type Transactor struct{}

func (Transactor) WithTx(ctx context.Context, function func(ctx context.Context) error) error {
	return function(ctx)
}

package auth

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Subject is what gets signed into a token. Refresh tokens only carry UserID.
type Subject struct {
	UserID   string
	Username string
	Email    string
	FullName string
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

type EventType string

const (
	EventUserRegistered  EventType = "user.registered"
	EventSessionStarted  EventType = "session.started"
	EventSessionRefresh  EventType = "session.refreshed"
	EventSessionEnded    EventType = "session.ended"
	EventPasswordChanged EventType = "password.changed"
	EventRefreshReuse    EventType = "refresh.reuse_detected"
)

type Event struct {
	ID     string    `json:"id"`
	Type   EventType `json:"type"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

func NewEvent(t EventType, userID string, at time.Time) Event {
	return Event{ID: uuid.NewString(), Type: t, UserID: userID, At: at.UTC()}
}

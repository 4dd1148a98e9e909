package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	tokens "github.com/NordCoder/Vidtube/internal/auth"
	"github.com/NordCoder/Vidtube/internal/repository/memory"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	uc     *Usecase
	store  *memory.Store
	events *memory.EventRecorder
	issuer *tokens.Issuer
	clock  *testClock
}

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 240 * time.Hour
)

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &testClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	issuer, err := tokens.NewIssuer(tokens.IssuerConfig{
		Issuer:  "vidtube-test",
		Access:  tokens.KeyConfig{Secret: []byte("access-secret"), TTL: accessTTL},
		Refresh: tokens.KeyConfig{Secret: []byte("refresh-secret"), TTL: refreshTTL},
		Now:     clock.Now,
	})
	require.NoError(t, err)

	store := memory.NewStore(clock.Now)
	events := memory.NewEventRecorder()
	uc := NewUseCase(Deps{
		Users:         store,
		RefreshTokens: store,
		Tokens:        issuer,
		Hasher:        tokens.NewHasher(bcrypt.MinCost),
		Tx:            memory.Transactor{},
		Events:        events,
	}, Config{Now: clock.Now})

	return &testEnv{uc: uc, store: store, events: events, issuer: issuer, clock: clock}
}

func (e *testEnv) registerAlice(t *testing.T) string {
	t.Helper()
	u, err := e.uc.Register(context.Background(), RegisterInput{
		Username: "Alice",
		Email:    "alice@example.com",
		FullName: "Alice Liddell",
		Password: "secret1",
	})
	require.NoError(t, err)
	return u.ID
}

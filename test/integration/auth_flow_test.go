//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tokens "github.com/NordCoder/Vidtube/internal/auth"
	domainauth "github.com/NordCoder/Vidtube/internal/domain/auth"
	"github.com/NordCoder/Vidtube/internal/domain/user"
	pg "github.com/NordCoder/Vidtube/internal/repository/postgres"
	"github.com/NordCoder/Vidtube/internal/services/api-gateway/auth"
)

func newUsecase(t *testing.T, db *pg.DB) *auth.Usecase {
	t.Helper()
	issuer, err := tokens.NewIssuer(tokens.IssuerConfig{
		Issuer:  "vidtube-it",
		Access:  tokens.KeyConfig{Secret: []byte("it-access"), TTL: time.Minute},
		Refresh: tokens.KeyConfig{Secret: []byte("it-refresh"), TTL: time.Hour},
	})
	require.NoError(t, err)
	return auth.NewUseCase(auth.Deps{
		Users:         pg.NewUserRepo(db),
		RefreshTokens: pg.NewRefreshTokenRepo(db),
		Tokens:        issuer,
		Hasher:        tokens.NewHasher(4),
		Tx:            pg.NewTransactor(db, nil),
		Events:        pg.NewAuthEventOutbox(pg.NewOutboxRepo(db)),
	}, auth.Config{})
}

func TestMigrations_CreateSchema(t *testing.T) {
	db := openSQL(t)
	var version int64
	require.NoError(t, db.QueryRow(`SELECT MAX(version_id) FROM goose_db_version`).Scan(&version))
	assert.EqualValues(t, 2, version)

	var nullable string
	require.NoError(t, db.QueryRow(
		`SELECT is_nullable FROM information_schema.columns WHERE table_name = 'users' AND column_name = 'refresh_token'`,
	).Scan(&nullable))
	assert.Equal(t, "YES", nullable)
}

func TestUserRepo_UniqueHandles(t *testing.T) {
	truncate(t)
	ctx := context.Background()
	repo := pg.NewUserRepo(newDB(t))

	alice := &user.User{Username: "alice", Email: "a@x.io", FullName: "Alice", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, alice))
	require.NotEmpty(t, alice.ID)

	err := repo.Create(ctx, &user.User{Username: "alice", Email: "other@x.io", FullName: "A2", PasswordHash: "h"})
	assert.ErrorIs(t, err, user.ErrConflict)

	byEmail, err := repo.FindByHandle(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestAuthFlow_RotationAndOutbox(t *testing.T) {
	truncate(t)
	ctx := context.Background()
	db := newDB(t)
	uc := newUsecase(t, db)

	u, err := uc.Register(ctx, auth.RegisterInput{
		Username: "alice", Email: "a@x.io", FullName: "Alice", Password: "secret1",
	})
	require.NoError(t, err)

	sess, err := uc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	rotated, err := uc.Refresh(ctx, sess.Tokens.Refresh.Value)
	require.NoError(t, err)

	_, err = uc.Refresh(ctx, sess.Tokens.Refresh.Value)
	assert.ErrorIs(t, err, domainauth.ErrTokenStale)

	require.NoError(t, uc.Logout(ctx, u.ID))
	_, err = uc.Refresh(ctx, rotated.Refresh.Value)
	assert.ErrorIs(t, err, domainauth.ErrTokenStale)

	msgs, err := pg.NewOutboxRepo(db).PickBatch(ctx, 100, time.Minute)
	require.NoError(t, err)
	types := make([]domainauth.EventType, 0, len(msgs))
	for _, m := range msgs {
		var e domainauth.Event
		require.NoError(t, json.Unmarshal(m.Data, &e))
		assert.Equal(t, u.ID, e.UserID)
		types = append(types, e.Type)
	}
	assert.ElementsMatch(t, []domainauth.EventType{
		domainauth.EventUserRegistered,
		domainauth.EventSessionStarted,
		domainauth.EventSessionRefresh,
		domainauth.EventRefreshReuse,
		domainauth.EventSessionEnded,
		domainauth.EventRefreshReuse,
	}, types)
}

func TestRefresh_ConcurrentPresentationsOneWins(t *testing.T) {
	truncate(t)
	ctx := context.Background()
	uc := newUsecase(t, newDB(t))

	_, err := uc.Register(ctx, auth.RegisterInput{
		Username: "bob", Email: "b@x.io", FullName: "Bob", Password: "secret1",
	})
	require.NoError(t, err)
	sess, err := uc.Login(ctx, "bob", "secret1")
	require.NoError(t, err)

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.Refresh(ctx, sess.Tokens.Refresh.Value); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

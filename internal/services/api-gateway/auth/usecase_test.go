package auth

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/NordCoder/Vidtube/internal/domain/auth"
)

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"missing username", RegisterInput{Email: "a@example.com", FullName: "A", Password: "secret1"}, domainauth.ErrValidation},
		{"blank full name", RegisterInput{Username: "a", Email: "a@example.com", FullName: "  ", Password: "secret1"}, domainauth.ErrValidation},
		{"bad email", RegisterInput{Username: "a", Email: "not-an-email", FullName: "A", Password: "secret1"}, domainauth.ErrValidation},
		{"username with at", RegisterInput{Username: "a@b", Email: "a@example.com", FullName: "A", Password: "secret1"}, domainauth.ErrValidation},
		{"short password", RegisterInput{Username: "a", Email: "a@example.com", FullName: "A", Password: "123"}, domainauth.ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			_, err := e.uc.Register(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, e.events.Events())
		})
	}
}

func TestRegister_NormalizesAndHashes(t *testing.T) {
	e := newEnv(t)
	id := e.registerAlice(t)

	u, err := e.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.Nil(t, u.RefreshToken, "registration does not start a session")
	assert.Equal(t, []domainauth.EventType{domainauth.EventUserRegistered}, e.events.Types())

	_, err = e.uc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "other@example.com", FullName: "Other", Password: "secret1",
	})
	require.ErrorIs(t, err, domainauth.ErrConflict)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	id := e.registerAlice(t)
	ctx := context.Background()

	_, err := e.uc.Login(ctx, "bob", "secret1")
	require.ErrorIs(t, err, domainauth.ErrNotFound)

	_, err = e.uc.Login(ctx, "alice", "wrong-password")
	require.ErrorIs(t, err, domainauth.ErrInvalidCredential)

	sess, err := e.uc.Login(ctx, "ALICE@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, sess.User.ID)
	assert.NotEmpty(t, sess.Tokens.Access.Value)
	assert.NotEqual(t, sess.Tokens.Access.Value, sess.Tokens.Refresh.Value)

	stored, err := e.store.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, sess.Tokens.Refresh.Value, *stored.RefreshToken)
}

func TestLogin_SupersedesPreviousSession(t *testing.T) {
	e := newEnv(t)
	e.registerAlice(t)
	ctx := context.Background()

	first, err := e.uc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	_, err = e.uc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	_, err = e.uc.Refresh(ctx, first.Tokens.Refresh.Value)
	require.ErrorIs(t, err, domainauth.ErrTokenStale)
}

func TestRefresh_RotatesOnce(t *testing.T) {
	e := newEnv(t)
	e.registerAlice(t)
	ctx := context.Background()

	sess, err := e.uc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	r1 := sess.Tokens.Refresh.Value

	pair, err := e.uc.Refresh(ctx, r1)
	require.NoError(t, err)
	assert.NotEqual(t, r1, pair.Refresh.Value)
	assert.NotEqual(t, sess.Tokens.Access.Value, pair.Access.Value)

	_, err = e.uc.Refresh(ctx, r1)
	require.ErrorIs(t, err, domainauth.ErrTokenStale)

	_, err = e.uc.Refresh(ctx, pair.Refresh.Value)
	require.NoError(t, err)

	assert.Equal(t, []domainauth.EventType{
		domainauth.EventUserRegistered,
		domainauth.EventSessionStarted,
		domainauth.EventSessionRefresh,
		domainauth.EventRefreshReuse,
		domainauth.EventSessionRefresh,
	}, e.events.Types())
}

func TestRefresh_Rejects(t *testing.T) {
	e := newEnv(t)
	e.registerAlice(t)
	ctx := context.Background()

	sess, err := e.uc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	ghost, err := e.issuer.Mint(domainauth.KindRefresh, domainauth.Subject{UserID: uuid.NewString()})
	require.NoError(t, err)

	_, err = e.uc.Refresh(ctx, "")
	require.ErrorIs(t, err, domainauth.ErrUnauthorized)

	_, err = e.uc.Refresh(ctx, "garbage")
	require.ErrorIs(t, err, domainauth.ErrInvalidToken)
	require.ErrorIs(t, err, domainauth.ErrTokenMalformed)

	_, err = e.uc.Refresh(ctx, sess.Tokens.Access.Value)
	require.ErrorIs(t, err, domainauth.ErrInvalidToken, "access token is not a refresh token")

	_, err = e.uc.Refresh(ctx, ghost.Value)
	require.ErrorIs(t, err, domainauth.ErrInvalidToken)

	e.clock.Advance(refreshTTL + 1)
	_, err = e.uc.Refresh(ctx, sess.Tokens.Refresh.Value)
	require.ErrorIs(t, err, domainauth.ErrInvalidToken)
	require.ErrorIs(t, err, domainauth.ErrTokenExpired)
}

func TestRefresh_ConcurrentSingleWinner(t *testing.T) {
	e := newEnv(t)
	e.registerAlice(t)
	ctx := context.Background()

	sess, err := e.uc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	const n = 16
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		stale int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.uc.Refresh(ctx, sess.Tokens.Refresh.Value)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case assert.ErrorIs(t, err, domainauth.ErrTokenStale):
				stale++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, stale)
}

func TestLogout_InvalidatesRefresh(t *testing.T) {
	e := newEnv(t)
	id := e.registerAlice(t)
	ctx := context.Background()

	sess, err := e.uc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.NoError(t, e.uc.Logout(ctx, id))

	_, err = e.uc.Refresh(ctx, sess.Tokens.Refresh.Value)
	require.ErrorIs(t, err, domainauth.ErrTokenStale)

	stored, err := e.store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, stored.RefreshToken)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	id := e.registerAlice(t)
	ctx := context.Background()

	sess, err := e.uc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	require.ErrorIs(t, e.uc.ChangePassword(ctx, id, "nope", "secret2"), domainauth.ErrInvalidCredential)
	require.ErrorIs(t, e.uc.ChangePassword(ctx, id, "secret1", "123"), domainauth.ErrWeakPassword)
	require.NoError(t, e.uc.ChangePassword(ctx, id, "secret1", "secret2"))

	_, err = e.uc.Login(ctx, "alice", "secret1")
	require.ErrorIs(t, err, domainauth.ErrInvalidCredential)

	// The session opened before the change can still rotate.
	_, err = e.uc.Refresh(ctx, sess.Tokens.Refresh.Value)
	require.NoError(t, err)

	_, err = e.uc.Login(ctx, "alice", "secret2")
	require.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	e := newEnv(t)
	id := e.registerAlice(t)
	ctx := context.Background()

	sess, err := e.uc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	u, err := e.uc.Authenticate(ctx, sess.Tokens.Access.Value)
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, err = e.uc.Authenticate(ctx, "")
	require.ErrorIs(t, err, domainauth.ErrUnauthorized)

	_, err = e.uc.Authenticate(ctx, sess.Tokens.Refresh.Value)
	require.ErrorIs(t, err, domainauth.ErrInvalidToken)

	e.clock.Advance(accessTTL + 1)
	_, err = e.uc.Authenticate(ctx, sess.Tokens.Access.Value)
	require.ErrorIs(t, err, domainauth.ErrTokenExpired)
}

func TestPasswords_BeyondBcryptLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	long := strings.Repeat("p", 80)

	u, err := e.uc.Register(ctx, RegisterInput{
		Username: "bob", Email: "bob@example.com", FullName: "Bob", Password: long,
	})
	require.NoError(t, err)

	_, err = e.uc.Login(ctx, "bob", long)
	require.NoError(t, err)
	_, err = e.uc.Login(ctx, "bob", long[:72])
	require.ErrorIs(t, err, domainauth.ErrInvalidCredential)

	longer := long + "-and-more"
	require.NoError(t, e.uc.ChangePassword(ctx, u.ID, long, longer))
	_, err = e.uc.Login(ctx, "bob", longer)
	require.NoError(t, err)
}

package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/NordCoder/Vidtube/internal/domain/user"
	"github.com/NordCoder/Vidtube/internal/obs"
	"github.com/NordCoder/Vidtube/internal/services/api-gateway/httpx"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

type ctxKey int

const profileKey ctxKey = 1

func WithProfile(ctx context.Context, p user.Profile) context.Context {
	return context.WithValue(ctx, profileKey, p)
}

func ProfileFromCtx(ctx context.Context) (user.Profile, bool) {
	p, ok := ctx.Value(profileKey).(user.Profile)
	return p, ok
}

func UserIDFromCtx(ctx context.Context) (string, bool) {
	p, ok := ProfileFromCtx(ctx)
	return p.ID, ok && p.ID != ""
}

type IdentityResolver interface {
	Authenticate(ctx context.Context, accessToken string) (*user.User, error)
}

// Middleware guards protected routes with an access token.
type Middleware struct {
	resolver IdentityResolver
	log      *zap.Logger
}

func NewMiddleware(resolver IdentityResolver, log *zap.Logger) *Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &Middleware{resolver: resolver, log: log}
}

// RequireUser attaches the caller's profile to the request context or answers 401.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.resolver.Authenticate(r.Context(), accessToken(r))
		if err != nil {
			obs.WithTrace(r.Context(), m.log).Debug("auth.reject", zap.String("path", r.URL.Path), zap.Error(err))
			httpx.WriteError(w, m.log, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), u.Profile())))
	})
}

// accessToken prefers the cookie over the Authorization header.
func accessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return bearer(r)
}

func bearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return v
}

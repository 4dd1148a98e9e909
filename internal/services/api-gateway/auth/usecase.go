package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	tokens "github.com/NordCoder/Vidtube/internal/auth"
	domainauth "github.com/NordCoder/Vidtube/internal/domain/auth"
	"github.com/NordCoder/Vidtube/internal/domain/user"
	"github.com/NordCoder/Vidtube/internal/obs"
)

type TokenIssuer interface {
	Mint(kind domainauth.Kind, sub domainauth.Subject) (domainauth.IssuedToken, error)
	Verify(kind domainauth.Kind, token string) (*tokens.Claims, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type Deps struct {
	Users         user.Repo
	RefreshTokens domainauth.RefreshTokenRepo
	Tokens        TokenIssuer
	Hasher        PasswordHasher
	// Tx and Events are optional. Without Tx every store call stands alone;
	// without Events nothing is published.
	Tx     domainauth.Transactor
	Events domainauth.EventPublisher
	Logger *zap.Logger
}

type Config struct {
	MinPasswordLen int
	Now            func() time.Time
}

type Usecase struct {
	users  user.Repo
	rt     domainauth.RefreshTokenRepo
	tokens TokenIssuer
	hasher PasswordHasher
	tx     domainauth.Transactor
	events domainauth.EventPublisher
	log    *zap.Logger
	tracer trace.Tracer
	cfg    Config
}

type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     string
	CoverImage string
}

// Session is the result of a successful login.
type Session struct {
	User   user.Profile
	Tokens domainauth.TokenPair
}

func NewUseCase(d Deps, cfg Config) *Usecase {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.MinPasswordLen <= 0 {
		cfg.MinPasswordLen = 6
	}
	if d.Tx == nil {
		d.Tx = directTx{}
	}
	if d.Events == nil {
		d.Events = discardEvents{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Usecase{
		users:  d.Users,
		rt:     d.RefreshTokens,
		tokens: d.Tokens,
		hasher: d.Hasher,
		tx:     d.Tx,
		events: d.Events,
		log:    d.Logger,
		tracer: obs.Tracer("auth"),
		cfg:    cfg,
	}
}

func normalizeHandle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (u *Usecase) Register(ctx context.Context, in RegisterInput) (_ *user.User, err error) {
	ctx, span := u.tracer.Start(ctx, "auth.Register")
	defer func() { u.finish(span, "register", err) }()

	in.Username = normalizeHandle(in.Username)
	in.Email = normalizeHandle(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Username == "" || in.Email == "" || in.FullName == "" || strings.TrimSpace(in.Password) == "" {
		return nil, fmt.Errorf("%w: all fields are required", domainauth.ErrValidation)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return nil, fmt.Errorf("%w: email is not valid", domainauth.ErrValidation)
	}
	if strings.Contains(in.Username, "@") {
		return nil, fmt.Errorf("%w: username must not contain @", domainauth.ErrValidation)
	}
	if len(in.Password) < u.cfg.MinPasswordLen {
		return nil, domainauth.ErrWeakPassword
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	newUser := &user.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       strings.TrimSpace(in.Avatar),
		CoverImage:   strings.TrimSpace(in.CoverImage),
		PasswordHash: hash,
	}
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.users.Create(ctx, newUser); err != nil {
			return err
		}
		return u.events.Publish(ctx, domainauth.NewEvent(domainauth.EventUserRegistered, newUser.ID, u.cfg.Now()))
	})
	if err != nil {
		return nil, err
	}

	obs.WithTrace(ctx, u.log).Info("auth.register", obs.UserFields(newUser.ID, newUser.Username)...)
	return newUser, nil
}

// Login overwrites any refresh token a previous session held.
func (u *Usecase) Login(ctx context.Context, handle, password string) (_ *Session, err error) {
	ctx, span := u.tracer.Start(ctx, "auth.Login")
	defer func() { u.finish(span, "login", err) }()

	handle = normalizeHandle(handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: username or email is required", domainauth.ErrValidation)
	}

	rec, err := u.users.FindByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if !u.hasher.Verify(password, rec.PasswordHash) {
		return nil, domainauth.ErrInvalidCredential
	}

	pair, err := u.mintPair(rec)
	if err != nil {
		return nil, err
	}
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.rt.SetRefreshToken(ctx, rec.ID, &pair.Refresh.Value); err != nil {
			return err
		}
		return u.events.Publish(ctx, domainauth.NewEvent(domainauth.EventSessionStarted, rec.ID, u.cfg.Now()))
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	obs.WithTrace(ctx, u.log).Info("auth.login", obs.UserFields(rec.ID, rec.Username)...)
	return &Session{User: rec.Profile(), Tokens: pair}, nil
}

// Refresh rotates the pair. The presented token must equal the stored one and
// is unusable afterwards.
func (u *Usecase) Refresh(ctx context.Context, presented string) (_ domainauth.TokenPair, err error) {
	ctx, span := u.tracer.Start(ctx, "auth.Refresh")
	defer func() { u.finish(span, "refresh", err) }()

	if presented == "" {
		return domainauth.TokenPair{}, domainauth.ErrUnauthorized
	}
	claims, err := u.tokens.Verify(domainauth.KindRefresh, presented)
	if err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("%w: %w", domainauth.ErrInvalidToken, err)
	}
	span.SetAttributes(attribute.String("user.id", claims.Subject))

	rec, err := u.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return domainauth.TokenPair{}, domainauth.ErrInvalidToken
		}
		return domainauth.TokenPair{}, err
	}
	if rec.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*rec.RefreshToken), []byte(presented)) != 1 {
		u.reuseDetected(ctx, rec.ID)
		return domainauth.TokenPair{}, domainauth.ErrTokenStale
	}

	pair, err := u.mintPair(rec)
	if err != nil {
		return domainauth.TokenPair{}, err
	}
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.rt.SwapRefreshToken(ctx, rec.ID, presented, pair.Refresh.Value); err != nil {
			return err
		}
		return u.events.Publish(ctx, domainauth.NewEvent(domainauth.EventSessionRefresh, rec.ID, u.cfg.Now()))
	})
	if errors.Is(err, user.ErrRefreshMismatch) {
		u.reuseDetected(ctx, rec.ID)
		return domainauth.TokenPair{}, domainauth.ErrTokenStale
	}
	if err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	obs.WithTrace(ctx, u.log).Debug("auth.refresh", obs.UserFields(rec.ID, "")...)
	return pair, nil
}

func (u *Usecase) Logout(ctx context.Context, userID string) (err error) {
	ctx, span := u.tracer.Start(ctx, "auth.Logout")
	defer func() { u.finish(span, "logout", err) }()

	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.rt.SetRefreshToken(ctx, userID, nil); err != nil {
			return err
		}
		return u.events.Publish(ctx, domainauth.NewEvent(domainauth.EventSessionEnded, userID, u.cfg.Now()))
	})
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	obs.WithTrace(ctx, u.log).Info("auth.logout", obs.UserFields(userID, "")...)
	return nil
}

// ChangePassword keeps the stored refresh token, so an existing session can
// still rotate after the password changes.
func (u *Usecase) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) (err error) {
	ctx, span := u.tracer.Start(ctx, "auth.ChangePassword")
	defer func() { u.finish(span, "change_password", err) }()

	rec, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.hasher.Verify(oldPassword, rec.PasswordHash) {
		return domainauth.ErrInvalidCredential
	}
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("%w: new password is required", domainauth.ErrValidation)
	}
	if len(newPassword) < u.cfg.MinPasswordLen {
		return domainauth.ErrWeakPassword
	}

	hash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	err = u.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := u.users.UpdateCredentialHash(ctx, rec.ID, hash); err != nil {
			return err
		}
		return u.events.Publish(ctx, domainauth.NewEvent(domainauth.EventPasswordChanged, rec.ID, u.cfg.Now()))
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	obs.WithTrace(ctx, u.log).Info("auth.change_password", obs.UserFields(rec.ID, "")...)
	return nil
}

// Authenticate resolves an access token to its account with one store read.
func (u *Usecase) Authenticate(ctx context.Context, accessToken string) (*user.User, error) {
	if accessToken == "" {
		return nil, domainauth.ErrUnauthorized
	}
	claims, err := u.tokens.Verify(domainauth.KindAccess, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainauth.ErrInvalidToken, err)
	}
	rec, err := u.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, domainauth.ErrInvalidToken
		}
		return nil, err
	}
	return rec, nil
}

func (u *Usecase) mintPair(rec *user.User) (domainauth.TokenPair, error) {
	sub := domainauth.Subject{
		UserID:   rec.ID,
		Username: rec.Username,
		Email:    rec.Email,
		FullName: rec.FullName,
	}
	access, err := u.tokens.Mint(domainauth.KindAccess, sub)
	if err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("mint access: %w", err)
	}
	refresh, err := u.tokens.Mint(domainauth.KindRefresh, sub)
	if err != nil {
		return domainauth.TokenPair{}, fmt.Errorf("mint refresh: %w", err)
	}
	return domainauth.TokenPair{Access: access, Refresh: refresh}, nil
}

func (u *Usecase) reuseDetected(ctx context.Context, userID string) {
	obs.ObserveRefreshReuse()
	log := obs.WithTrace(ctx, u.log)
	log.Warn("auth.refresh_reuse", obs.UserFields(userID, "")...)
	if err := u.events.Publish(ctx, domainauth.NewEvent(domainauth.EventRefreshReuse, userID, u.cfg.Now())); err != nil {
		log.Error("publish refresh reuse", zap.Error(err))
	}
}

func (u *Usecase) finish(span trace.Span, op string, err error) {
	obs.ObserveAuth(op, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op)
	}
	span.End()
}

type directTx struct{}

func (directTx) WithTx(ctx context.Context, function func(ctx context.Context) error) error {
	return function(ctx)
}

type discardEvents struct{}

func (discardEvents) Publish(context.Context, domainauth.Event) error { return nil }

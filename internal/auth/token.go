package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/NordCoder/Vidtube/internal/domain/auth"
)

var ErrNoSecret = errors.New("token secret is not configured")

type Claims struct {
	jwt.RegisteredClaims
	Kind     domainauth.Kind `json:"kind"`
	Username string          `json:"username,omitempty"`
	Email    string          `json:"email,omitempty"`
	FullName string          `json:"fullName,omitempty"`
}

type KeyConfig struct {
	Secret []byte
	TTL    time.Duration
}

type IssuerConfig struct {
	Issuer  string
	Access  KeyConfig
	Refresh KeyConfig
	Now     func() time.Time
}

// Issuer signs and verifies access and refresh tokens. Each kind has its own
// secret, so a leaked refresh secret cannot forge access tokens.
type Issuer struct {
	issuer string
	keys   map[domainauth.Kind]KeyConfig
	now    func() time.Time
}

func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	keys := map[domainauth.Kind]KeyConfig{
		domainauth.KindAccess:  cfg.Access,
		domainauth.KindRefresh: cfg.Refresh,
	}
	for kind, k := range keys {
		if len(k.Secret) == 0 {
			return nil, fmt.Errorf("%s: %w", kind, ErrNoSecret)
		}
		if k.TTL <= 0 {
			return nil, fmt.Errorf("%s: ttl must be positive, got %s", kind, k.TTL)
		}
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Issuer{issuer: cfg.Issuer, keys: keys, now: cfg.Now}, nil
}

func (i *Issuer) TTL(kind domainauth.Kind) time.Duration {
	return i.keys[kind].TTL
}

func (i *Issuer) Mint(kind domainauth.Kind, sub domainauth.Subject) (domainauth.IssuedToken, error) {
	key, ok := i.keys[kind]
	if !ok {
		return domainauth.IssuedToken{}, fmt.Errorf("unknown token kind %q", kind)
	}
	now := i.now()
	exp := now.Add(key.TTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sub.UserID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Kind: kind,
	}
	if kind == domainauth.KindAccess {
		claims.Username = sub.Username
		claims.Email = sub.Email
		claims.FullName = sub.FullName
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.Secret)
	if err != nil {
		return domainauth.IssuedToken{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return domainauth.IssuedToken{Value: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks signature, issuer, expiry and kind. It never touches storage.
func (i *Issuer) Verify(kind domainauth.Kind, token string) (*Claims, error) {
	key, ok := i.keys[kind]
	if !ok {
		return nil, domainauth.ErrInvalidToken
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return key.Secret, nil
	}, opts...)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, domainauth.ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domainauth.ErrTokenExpired
	default:
		return nil, domainauth.ErrInvalidToken
	}

	if claims.Kind != kind || claims.Subject == "" {
		return nil, domainauth.ErrInvalidToken
	}
	return &claims, nil
}

package auth

import (
	"errors"

	"github.com/NordCoder/Vidtube/internal/domain/user"
)

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrNotFound          = user.ErrNotFound
	ErrConflict          = user.ErrConflict
	ErrUnauthorized      = errors.New("unauthorized request")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenMalformed    = errors.New("malformed token")
	ErrTokenStale        = errors.New("refresh token is expired or used")
	ErrValidation        = errors.New("validation failed")
	ErrWeakPassword      = errors.New("password is too weak")
	ErrEmptyPassword     = errors.New("empty password")
)

// Package httpx holds the JSON envelope, error mapping and middleware shared by
// the api-gateway handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	domainauth "github.com/NordCoder/Vidtube/internal/domain/auth"
)

const maxBody = 16 << 10

// Response is the envelope every endpoint answers with.
type Response struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

func WriteJSON(w http.ResponseWriter, code int, data any, message string) {
	write(w, code, Response{
		StatusCode: code,
		Data:       data,
		Message:    message,
		Success:    code < http.StatusBadRequest,
	})
}

// WriteError maps domain errors onto a status and message. Unknown errors are
// logged and reported as 500 without detail.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	code, msg := Status(err)
	if code == http.StatusInternalServerError && log != nil {
		log.Error("request failed", zap.Error(err))
	}
	write(w, code, Response{
		StatusCode: code,
		Data:       nil,
		Message:    msg,
		Success:    false,
		Errors:     []string{msg},
	})
}

func Status(err error) (int, string) {
	switch {
	case errors.Is(err, domainauth.ErrValidation), errors.Is(err, domainauth.ErrWeakPassword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domainauth.ErrConflict):
		return http.StatusConflict, "user with same email or username already exists"
	case errors.Is(err, domainauth.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized request"
	case errors.Is(err, domainauth.ErrTokenStale):
		return http.StatusUnauthorized, "refresh token is expired or used"
	case errors.Is(err, domainauth.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, domainauth.ErrInvalidToken), errors.Is(err, domainauth.ErrTokenMalformed):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, domainauth.ErrInvalidCredential):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domainauth.ErrNotFound):
		return http.StatusNotFound, "user not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// DecodeJSON reads a bounded JSON body into dst. Unknown fields are ignored.
func DecodeJSON(r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("%w: content type must be application/json", domainauth.ErrValidation)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domainauth.ErrValidation)
		}
		return fmt.Errorf("%w: malformed json", domainauth.ErrValidation)
	}
	return nil
}

func write(w http.ResponseWriter, code int, body Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

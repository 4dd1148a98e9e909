// Package memory is an in-process credential store. It keeps the same
// contracts as the postgres repositories and is used for local runs and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/NordCoder/Vidtube/internal/domain/auth"
	"github.com/NordCoder/Vidtube/internal/domain/user"
)

var (
	_ user.Repo                   = (*Store)(nil)
	_ domainauth.RefreshTokenRepo = (*Store)(nil)
)

type Store struct {
	mu   sync.RWMutex
	byID map[string]*user.User
	now  func() time.Time
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{byID: make(map[string]*user.User), now: now}
}

func (s *Store) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cur := range s.byID {
		if strings.EqualFold(cur.Username, u.Username) || strings.EqualFold(cur.Email, u.Email) {
			return user.ErrConflict
		}
	}
	now := s.now()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	u.RefreshToken = nil
	s.byID[u.ID] = clone(u)
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return clone(u), nil
}

func (s *Store) FindByHandle(_ context.Context, handle string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.byID {
		if u.Username == handle || u.Email == handle {
			return clone(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *Store) UpdateCredentialHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) UpdateProfile(_ context.Context, id string, upd user.ProfileUpdate) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	if upd.Email != "" {
		for otherID, other := range s.byID {
			if otherID != id && strings.EqualFold(other.Email, upd.Email) {
				return nil, user.ErrConflict
			}
		}
		u.Email = upd.Email
	}
	if upd.FullName != "" {
		u.FullName = upd.FullName
	}
	if upd.Avatar != "" {
		u.Avatar = upd.Avatar
	}
	if upd.CoverImage != "" {
		u.CoverImage = upd.CoverImage
	}
	u.UpdatedAt = s.now()
	return clone(u), nil
}

func (s *Store) SetRefreshToken(_ context.Context, userID string, token *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.RefreshToken = copyPtr(token)
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) SwapRefreshToken(_ context.Context, userID, presented, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return user.ErrNotFound
	}
	if u.RefreshToken == nil || *u.RefreshToken != presented {
		return user.ErrRefreshMismatch
	}
	u.RefreshToken = &next
	u.UpdatedAt = s.now()
	return nil
}

func clone(u *user.User) *user.User {
	c := *u
	c.RefreshToken = copyPtr(u.RefreshToken)
	return &c
}

func copyPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

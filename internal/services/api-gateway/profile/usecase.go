package profile

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	domainauth "github.com/NordCoder/Vidtube/internal/domain/auth"
	"github.com/NordCoder/Vidtube/internal/domain/user"
)

// Usecase edits profile fields. It never reads or writes credentials.
type Usecase struct {
	repo user.Repo
}

func NewUsecase(repo user.Repo) *Usecase {
	return &Usecase{repo: repo}
}

func (u *Usecase) UpdateAccount(ctx context.Context, id, fullName, email string) (*user.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return nil, fmt.Errorf("%w: fullName and email are required", domainauth.ErrValidation)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: email is not valid", domainauth.ErrValidation)
	}
	return u.repo.UpdateProfile(ctx, id, user.ProfileUpdate{FullName: fullName, Email: email})
}

// Media files are uploaded elsewhere; only the resulting URL is stored.
func (u *Usecase) UpdateAvatar(ctx context.Context, id, rawURL string) (*user.User, error) {
	if err := checkMediaURL(rawURL, "avatar"); err != nil {
		return nil, err
	}
	return u.repo.UpdateProfile(ctx, id, user.ProfileUpdate{Avatar: strings.TrimSpace(rawURL)})
}

func (u *Usecase) UpdateCoverImage(ctx context.Context, id, rawURL string) (*user.User, error) {
	if err := checkMediaURL(rawURL, "coverImage"); err != nil {
		return nil, err
	}
	return u.repo.UpdateProfile(ctx, id, user.ProfileUpdate{CoverImage: strings.TrimSpace(rawURL)})
}

func checkMediaURL(raw, field string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || raw == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %s must be an http(s) url", domainauth.ErrValidation, field)
	}
	return nil
}

package user

import "context"

type Repo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	// FindByHandle matches either the username or the email.
	FindByHandle(ctx context.Context, handle string) (*User, error)
	UpdateCredentialHash(ctx context.Context, id, hash string) error
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error)
}

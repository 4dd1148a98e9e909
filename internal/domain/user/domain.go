package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrConflict        = errors.New("user with same email or username already exists")
	ErrRefreshMismatch = errors.New("stored refresh token does not match")
)

// User is the durable identity record. PasswordHash and RefreshToken never
// leave the service; use Profile for anything client facing.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Avatar       string
	CoverImage   string
	PasswordHash string
	RefreshToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Profile struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// ProfileUpdate carries the account details a user may change. Empty fields
// are left as they are.
type ProfileUpdate struct {
	FullName   string
	Email      string
	Avatar     string
	CoverImage string
}

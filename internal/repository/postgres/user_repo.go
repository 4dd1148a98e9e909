package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/NordCoder/Vidtube/internal/domain/user"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id::text, username, email, full_name, avatar, cover_image, password_hash, refresh_token, created_at, updated_at`

const (
	qUserInsert = `
INSERT INTO users (username, email, full_name, avatar, cover_image, password_hash)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns + `;`

	qUserByID = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1;`

	qUserByHandle = `
SELECT ` + userColumns + `
FROM users
WHERE username = $1 OR email = $1
LIMIT 1;`

	qUserUpdateHash = `
UPDATE users
SET password_hash = $2,
    updated_at    = NOW()
WHERE id = $1;`

	qUserUpdateProfile = `
UPDATE users
SET full_name   = COALESCE(NULLIF($2, ''), full_name),
    email       = COALESCE(NULLIF($3, ''), email),
    avatar      = COALESCE(NULLIF($4, ''), avatar),
    cover_image = COALESCE(NULLIF($5, ''), cover_image),
    updated_at  = NOW()
WHERE id = $1
RETURNING ` + userColumns + `;`
)

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.execQueryer(ctx).QueryRow(ctx, qUserInsert,
		u.Username, u.Email, u.FullName, u.Avatar, u.CoverImage, u.PasswordHash)
	if err := scanUser(row, u); err != nil {
		if isUniqueViolation(err) {
			return user.ErrConflict
		}
		return fmt.Errorf("user insert: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, user.ErrNotFound
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByHandle(ctx context.Context, handle string) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.execQueryer(ctx).QueryRow(ctx, qUserByHandle, handle), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpdateCredentialHash(ctx context.Context, id, hash string) error {
	if _, err := uuid.Parse(id); err != nil {
		return user.ErrNotFound
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qUserUpdateHash, id, hash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id string, upd user.ProfileUpdate) (*user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, user.ErrNotFound
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	row := r.db.execQueryer(ctx).QueryRow(ctx, qUserUpdateProfile, id, upd.FullName, upd.Email, upd.Avatar, upd.CoverImage)
	if err := scanUser(row, &u); err != nil {
		if isUniqueViolation(err) {
			return nil, user.ErrConflict
		}
		return nil, err
	}
	return &u, nil
}

func scanUser(row pgx.Row, out *user.User) error {
	if err := row.Scan(
		&out.ID, &out.Username, &out.Email, &out.FullName, &out.Avatar, &out.CoverImage,
		&out.PasswordHash, &out.RefreshToken, &out.CreatedAt, &out.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrNotFound
		}
		return fmt.Errorf("scan user: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, created_at, username, email, fullname, avatar_url, cover_image_url, avatar_key, cover_image_key,
	password_hash, COALESCE(refresh_token_hash, '')`

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, email, fullname, password_hash)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, params models.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), params.Username, params.Email, params.Fullname, params.HashedPassword)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		if isUniqueViolation(err) {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

// Username match wins if by accident one user's username equals another user's email
const getUserByLogin = `-- name: GetUserByLogin
SELECT ` + userColumns + ` FROM users
WHERE lower(username) = lower($1) OR lower(email) = lower($1)
ORDER BY lower(username) = lower($1) DESC
LIMIT 1
`

func (r *UserRepo) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByLogin, login)
	return collectUser(rows)
}

const updateAccount = `-- name: UpdateAccount
UPDATE users
SET fullname = COALESCE($2::text, fullname),
    email = COALESCE($3::text, email)
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateAccount(ctx context.Context, id uuid.UUID, params models.UpdateAccountParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateAccount, id, params.Fullname, params.Email)
	user, err := collectUser(rows)
	if err != nil && isUniqueViolation(err) {
		return user, apperrors.ErrUserAlreadyExists
	}
	return user, err
}

const updatePassword = `-- name: UpdatePassword
UPDATE users SET password_hash = $2 WHERE id = $1
`

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	tag, err := r.DB.Exec(ctx, updatePassword, id, hashedPassword)
	return affectedOne(tag, err, apperrors.ErrUserNotFound)
}

const setAvatar = `-- name: SetAvatar
UPDATE users SET avatar_url = $2, avatar_key = $3
WHERE id = $1
RETURNING ` + userColumns

const setCoverImage = `-- name: SetCoverImage
UPDATE users SET cover_image_url = $2, cover_image_key = $3
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) SetImage(ctx context.Context, id uuid.UUID, kind string, url string, key string) (models.User, error) {
	var query string
	switch kind {
	case models.UserImageAvatar:
		query = setAvatar
	case models.UserImageCover:
		query = setCoverImage
	default:
		return models.User{}, fmt.Errorf("unknown user image %q", kind)
	}

	rows, _ := r.DB.Query(ctx, query, id, url, key)
	return collectUser(rows)
}

const setRefreshToken = `-- name: SetRefreshToken
UPDATE users SET refresh_token_hash = NULLIF($2, '') WHERE id = $1
`

func (r *UserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, tokenHash string) error {
	tag, err := r.DB.Exec(ctx, setRefreshToken, id, tokenHash)
	return affectedOne(tag, err, apperrors.ErrUserNotFound)
}

// Compare and swap: concurrent rotations with the same token can't both succeed
const rotateRefreshToken = `-- name: RotateRefreshToken
UPDATE users SET refresh_token_hash = $3
WHERE id = $1 AND refresh_token_hash = $2
`

func (r *UserRepo) RotateRefreshToken(ctx context.Context, id uuid.UUID, oldHash string, newHash string) error {
	tag, err := r.DB.Exec(ctx, rotateRefreshToken, id, oldHash, newHash)
	return affectedOne(tag, err, apperrors.ErrRefreshTokenStale)
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.Email, &u.Fullname, &u.AvatarURL, &u.CoverImageURL, &u.AvatarKey, &u.CoverImageKey, &u.HashedPassword, &u.RefreshTokenHash)
	return u, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Map result of single row update or delete
func affectedOne(tag pgconn.CommandTag, err error, notFound error) error {
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return notFound
	default:
		return nil
	}
}

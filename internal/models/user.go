package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID
	CreatedAt     time.Time
	Username      string
	Email         string
	Fullname      string
	AvatarURL     string
	CoverImageURL string

	// Media storage keys of the images, empty if not uploaded
	AvatarKey     string
	CoverImageKey string

	HashedPassword string

	// SHA-256 digest of the only refresh token accepted for the user
	// Empty when the user is logged out
	RefreshTokenHash string
}

type CreateUserParams struct {
	Username       string
	Email          string
	Fullname       string
	HashedPassword string
}

// Kinds of user images kept in media storage
const (
	UserImageAvatar = "avatar"
	UserImageCover  = "cover_image"
)

type UpdateAccountParams struct {
	Fullname *string
	Email    *string
}

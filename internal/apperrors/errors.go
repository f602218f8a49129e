package apperrors

import (
	"errors"
	"fmt"
)

// Base kinds. Handlers map them to HTTP statuses with errors.Is
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token is expired")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)

	// Presented refresh token is signed correctly but is not the one persisted for the user:
	// it was rotated out or revoked by logout
	ErrRefreshTokenStale = fmt.Errorf("refresh token is stale: %w", ErrTokenExpired)

	ErrVideoNotFound   = fmt.Errorf("video %w", ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)
	ErrTweetNotFound   = fmt.Errorf("tweet %w", ErrNotFound)

	ErrSelfSubscription = fmt.Errorf("%w: can't subscribe to own channel", ErrInvalidInput)
)

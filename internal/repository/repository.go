package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/models"
)

// Storage gives access to all repositories sharing one connection (or one transaction)
type Storage interface {
	User() UserRepo
	Video() VideoRepo
	Comment() CommentRepo
	Tweet() TweetRepo
	Like() LikeRepo
	Subscription() SubscriptionRepo

	// Run fn in transaction. Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}

// User repository interface
// It is the credential store: the only place password hashes and refresh token digests live
type UserRepo interface {
	// Create user
	// If user with username or email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params models.CreateUserParams) (models.User, error)

	// Get user by it's id or by login (username or email, case insensitive)
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByLogin(ctx context.Context, login string) (models.User, error)

	// Update only not nil fields
	UpdateAccount(ctx context.Context, userID uuid.UUID, params models.UpdateAccountParams) (models.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error

	// Set url and media key of user image (models.UserImageAvatar or models.UserImageCover)
	SetImage(ctx context.Context, userID uuid.UUID, kind string, url string, key string) (models.User, error)

	// Overwrite refresh token digest. Empty digest clears it
	SetRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string) error

	// Replace refresh token digest only if the current one equals oldHash
	// Has to return apperrors.ErrRefreshTokenStale otherwise
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash string, newHash string) error
}

type VideoRepo interface {
	CreateVideo(ctx context.Context, video models.Video) (models.Video, error)

	// Must return apperrors.ErrVideoNotFound if video not exists
	GetVideo(ctx context.Context, videoID uuid.UUID) (models.Video, error)
	ListVideos(ctx context.Context, q models.VideoQuery) ([]models.Video, int64, error)
	UpdateVideo(ctx context.Context, videoID uuid.UUID, params models.UpdateVideoParams) (models.Video, error)
	SetPublished(ctx context.Context, videoID uuid.UUID, published bool) (models.Video, error)
	IncrementViews(ctx context.Context, videoID uuid.UUID) error
	DeleteVideo(ctx context.Context, videoID uuid.UUID) error

	// Aggregates over the videos of the channel
	ChannelStats(ctx context.Context, channelID uuid.UUID) (models.ChannelStats, error)
}

type CommentRepo interface {
	CreateComment(ctx context.Context, comment models.Comment) (models.Comment, error)

	// Must return apperrors.ErrCommentNotFound if comment not exists
	GetComment(ctx context.Context, commentID uuid.UUID) (models.Comment, error)
	ListComments(ctx context.Context, q models.CommentQuery) ([]models.Comment, int64, error)
	UpdateComment(ctx context.Context, commentID uuid.UUID, content string) (models.Comment, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
}

type TweetRepo interface {
	CreateTweet(ctx context.Context, tweet models.Tweet) (models.Tweet, error)

	// Must return apperrors.ErrTweetNotFound if tweet not exists
	GetTweet(ctx context.Context, tweetID uuid.UUID) (models.Tweet, error)
	ListTweetsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Tweet, error)
	UpdateTweet(ctx context.Context, tweetID uuid.UUID, content string) (models.Tweet, error)
	DeleteTweet(ctx context.Context, tweetID uuid.UUID) error
}

type LikeRepo interface {
	// Like target if it is not liked by user yet, remove the like otherwise
	// Returns true if target is liked after the call
	ToggleLike(ctx context.Context, userID uuid.UUID, targetType string, targetID uuid.UUID) (bool, error)
	ListLikedVideos(ctx context.Context, userID uuid.UUID) ([]models.Video, error)

	// Newest like first. Comments under drafts of other users are skipped
	ListLikedComments(ctx context.Context, userID uuid.UUID) ([]models.Comment, error)
	ListLikedTweets(ctx context.Context, userID uuid.UUID) ([]models.Tweet, error)
}

type SubscriptionRepo interface {
	// Returns true if subscriber is subscribed after the call
	ToggleSubscription(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) (bool, error)
	ListSubscribers(ctx context.Context, channelID uuid.UUID) ([]models.User, error)
	ListChannels(ctx context.Context, subscriberID uuid.UUID) ([]models.User, error)
}

package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/handlers/middleware"
	"github.com/nkiryanov/videotube/internal/logger"
	"github.com/nkiryanov/videotube/internal/media"
	"github.com/nkiryanov/videotube/internal/models"
	"github.com/nkiryanov/videotube/internal/service/auth"
	"github.com/nkiryanov/videotube/internal/service/video"
)

const apiPrefix = "/api/v1"

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Services struct {
	Auth          authService
	Users         userService
	Videos        videoService
	Comments      commentService
	Tweets        tweetService
	Likes         likeService
	Subscriptions subscriptionService
	Channels      channelService
}

type Config struct {
	// Origins allowed to call API from browser, "*" for any
	CORSOrigins []string

	// Login attempts limiter, no limit if nil
	LoginLimiter middleware.RateLimiter
}

func NewRouter(s Services, cfg Config, m metricsRecorder, l logger.Logger) (http.Handler, error) {
	cors, err := middleware.CORS(cfg.CORSOrigins, l)
	if err != nil {
		return nil, err
	}

	withAuth := middleware.AuthMiddleware(s.Auth)
	withLoginLimit := func(h http.Handler) http.Handler { return h }
	if cfg.LoginLimiter != nil {
		withLoginLimit = middleware.RateLimit(cfg.LoginLimiter)
	}

	mux := http.NewServeMux()
	handle := func(pattern string, h http.Handler) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.Handle(method+" "+apiPrefix+path, h)
	}

	handle("POST /users/register", handleRegister(s.Auth, m, l))
	handle("POST /users/login", withLoginLimit(handleLogin(s.Auth, m, l)))
	handle("POST /users/refresh-token", handleTokenRefresh(s.Auth, m, l))
	handle("POST /users/logout", withAuth(handleLogout(s.Auth, m, l)))
	handle("POST /users/change-password", withAuth(handleChangePassword(s.Auth, l)))
	handle("GET /users/me", withAuth(handleUserMe()))
	handle("PATCH /users/me", withAuth(handleUpdateAccount(s.Users, l)))
	handle("PATCH /users/me/avatar", withAuth(handleUpdateUserImage(s.Users.UpdateAvatar, "avatar", "Avatar updated", l)))
	handle("PATCH /users/me/cover-image", withAuth(handleUpdateUserImage(s.Users.UpdateCoverImage, "coverImage", "Cover image updated", l)))
	handle("GET /users/{userID}", withAuth(handleUserProfile(s.Users, l)))

	handle("GET /videos", middleware.OptionalAuth(s.Auth)(handleListVideos(s.Videos, l)))
	handle("POST /videos", withAuth(handlePublishVideo(s.Videos, l)))
	handle("GET /videos/{videoID}", withAuth(handleGetVideo(s.Videos, l)))
	handle("PATCH /videos/{videoID}", withAuth(handleUpdateVideo(s.Videos, l)))
	handle("DELETE /videos/{videoID}", withAuth(handleDeleteVideo(s.Videos, l)))
	handle("PATCH /videos/{videoID}/publish", withAuth(handleTogglePublish(s.Videos, l)))

	handle("GET /comments/{videoID}", withAuth(handleListComments(s.Comments, l)))
	handle("POST /comments/{videoID}", withAuth(handleAddComment(s.Comments, l)))
	handle("PATCH /comments/c/{commentID}", withAuth(handleUpdateComment(s.Comments, l)))
	handle("DELETE /comments/c/{commentID}", withAuth(handleDeleteComment(s.Comments, l)))

	handle("POST /tweets", withAuth(handleCreateTweet(s.Tweets, l)))
	handle("GET /tweets/user/{userID}", withAuth(handleUserTweets(s.Tweets, l)))
	handle("PATCH /tweets/{tweetID}", withAuth(handleUpdateTweet(s.Tweets, l)))
	handle("DELETE /tweets/{tweetID}", withAuth(handleDeleteTweet(s.Tweets, l)))

	handle("POST /likes/toggle/v/{targetID}", withAuth(handleToggleLike(s.Likes.ToggleVideo, l)))
	handle("POST /likes/toggle/c/{targetID}", withAuth(handleToggleLike(s.Likes.ToggleComment, l)))
	handle("POST /likes/toggle/t/{targetID}", withAuth(handleToggleLike(s.Likes.ToggleTweet, l)))
	handle("GET /likes/videos", withAuth(handleLiked(s.Likes.LikedVideos, newVideoResponse, "Liked videos fetched", l)))
	handle("GET /likes/comments", withAuth(handleLiked(s.Likes.LikedComments, newCommentResponse, "Liked comments fetched", l)))
	handle("GET /likes/tweets", withAuth(handleLiked(s.Likes.LikedTweets, newTweetResponse, "Liked tweets fetched", l)))

	handle("POST /subscriptions/c/{channelID}", withAuth(handleToggleSubscription(s.Subscriptions, l)))
	handle("GET /subscriptions/c/{channelID}", withAuth(handleChannelSubscribers(s.Subscriptions, l)))
	handle("GET /subscriptions/u/{subscriberID}", withAuth(handleSubscribedChannels(s.Subscriptions, l)))

	handle("GET /dashboard/stats/{channelID}", withAuth(handleChannelStats(s.Channels, l)))
	handle("GET /dashboard/videos/{channelID}", withAuth(handleChannelVideos(s.Channels, l)))

	handle("GET /healthcheck", handleHealthcheck())
	mux.Handle("GET /metrics", m.Handler())

	// Metrics must wrap mux directly to see matched pattern
	handler := chain(mux,
		middleware.RequestID(),
		middleware.LoggerMiddleware(l),
		cors,
		middleware.Metrics(m),
	)

	return handler, nil
}

type metricsRecorder interface {
	ObserveRequest(method string, route string, status int, d time.Duration)
	authEvents
	Handler() http.Handler
}

type authEvents interface {
	AuthEvent(event string, outcome string)
}

type authService interface {
	// Has to return apperrors.ErrUserAlreadyExists if username or email is taken
	Register(ctx context.Context, params auth.RegisterParams) (models.User, error)

	// Login by username or email
	// Has to return apperrors.ErrUserNotFound if user not found and apperrors.ErrInvalidCredentials on wrong password
	Login(ctx context.Context, login string, password string) (models.User, models.TokenPair, error)

	// Rotate tokens: presented refresh token stops working
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	Logout(ctx context.Context, userID uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error

	// Set auth tokens (access, refresh) to response or remove them
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)
	ClearTokens(w http.ResponseWriter)

	// Get refresh token from request
	GetRefreshString(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	Get(ctx context.Context, userID uuid.UUID) (models.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, f media.File) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID uuid.UUID, f media.File) (models.User, error)
	UpdateAccount(ctx context.Context, userID uuid.UUID, params models.UpdateAccountParams) (models.User, error)
}

type videoService interface {
	Publish(ctx context.Context, ownerID uuid.UUID, p video.PublishParams, published bool) (models.Video, error)
	Get(ctx context.Context, viewerID uuid.UUID, videoID uuid.UUID) (models.Video, error)
	List(ctx context.Context, q models.VideoQuery) (models.Page[models.Video], error)
	Update(ctx context.Context, principalID uuid.UUID, videoID uuid.UUID, p video.UpdateParams) (models.Video, error)
	Delete(ctx context.Context, principalID uuid.UUID, videoID uuid.UUID) error
	TogglePublish(ctx context.Context, principalID uuid.UUID, videoID uuid.UUID) (models.Video, error)
}

type commentService interface {
	ListForVideo(ctx context.Context, q models.CommentQuery) (models.Page[models.Comment], error)
	Add(ctx context.Context, ownerID uuid.UUID, videoID uuid.UUID, content string) (models.Comment, error)
	Update(ctx context.Context, principalID uuid.UUID, commentID uuid.UUID, content string) (models.Comment, error)
	Delete(ctx context.Context, principalID uuid.UUID, commentID uuid.UUID) error
}

type tweetService interface {
	Create(ctx context.Context, ownerID uuid.UUID, content string) (models.Tweet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Tweet, error)
	Update(ctx context.Context, principalID uuid.UUID, tweetID uuid.UUID, content string) (models.Tweet, error)
	Delete(ctx context.Context, principalID uuid.UUID, tweetID uuid.UUID) error
}

type likeService interface {
	ToggleVideo(ctx context.Context, userID uuid.UUID, videoID uuid.UUID) (bool, error)
	ToggleComment(ctx context.Context, userID uuid.UUID, commentID uuid.UUID) (bool, error)
	ToggleTweet(ctx context.Context, userID uuid.UUID, tweetID uuid.UUID) (bool, error)
	LikedVideos(ctx context.Context, userID uuid.UUID) ([]models.Video, error)
	LikedComments(ctx context.Context, userID uuid.UUID) ([]models.Comment, error)
	LikedTweets(ctx context.Context, userID uuid.UUID) ([]models.Tweet, error)
}

type subscriptionService interface {
	Toggle(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) (bool, error)
	Subscribers(ctx context.Context, channelID uuid.UUID) ([]models.User, error)
	Channels(ctx context.Context, subscriberID uuid.UUID) ([]models.User, error)
}

type channelService interface {
	Stats(ctx context.Context, channelID uuid.UUID) (models.ChannelStats, error)
	Videos(ctx context.Context, channelID uuid.UUID, viewerID uuid.UUID, page int, limit int) (models.Page[models.Video], error)
}

package like

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/models"
	"github.com/nkiryanov/videotube/internal/repository"
	"github.com/nkiryanov/videotube/internal/service/ownership"
)

type LikeService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *LikeService {
	return &LikeService{storage: storage}
}

// Like video if it is not liked yet and unlike otherwise
// Return true if video is liked after the call. Comments and tweets are toggled the same way
// Drafts of other users can't be liked, nor comments under them
func (s *LikeService) ToggleVideo(ctx context.Context, userID uuid.UUID, videoID uuid.UUID) (bool, error) {
	video, err := ownership.VisibleVideo(ctx, userID, s.loadVideo(videoID))
	if err != nil {
		return false, err
	}

	return s.storage.Like().ToggleLike(ctx, userID, models.LikeTargetVideo, video.ID)
}

func (s *LikeService) ToggleComment(ctx context.Context, userID uuid.UUID, commentID uuid.UUID) (bool, error) {
	comment, err := s.storage.Comment().GetComment(ctx, commentID)
	if err != nil {
		return false, err
	}

	_, err = ownership.VisibleVideo(ctx, userID, s.loadVideo(comment.VideoID))
	if errors.Is(err, apperrors.ErrVideoNotFound) {
		return false, apperrors.ErrCommentNotFound
	}
	if err != nil {
		return false, err
	}

	return s.storage.Like().ToggleLike(ctx, userID, models.LikeTargetComment, comment.ID)
}

func (s *LikeService) ToggleTweet(ctx context.Context, userID uuid.UUID, tweetID uuid.UUID) (bool, error) {
	tweet, err := s.storage.Tweet().GetTweet(ctx, tweetID)
	if err != nil {
		return false, err
	}

	return s.storage.Like().ToggleLike(ctx, userID, models.LikeTargetTweet, tweet.ID)
}

func (s *LikeService) LikedVideos(ctx context.Context, userID uuid.UUID) ([]models.Video, error) {
	return s.storage.Like().ListLikedVideos(ctx, userID)
}

// Liked comments, newest like first. Comments under drafts of other users are skipped
func (s *LikeService) LikedComments(ctx context.Context, userID uuid.UUID) ([]models.Comment, error) {
	return s.storage.Like().ListLikedComments(ctx, userID)
}

func (s *LikeService) LikedTweets(ctx context.Context, userID uuid.UUID) ([]models.Tweet, error) {
	return s.storage.Like().ListLikedTweets(ctx, userID)
}

func (s *LikeService) loadVideo(videoID uuid.UUID) func(ctx context.Context) (models.Video, error) {
	return func(ctx context.Context) (models.Video, error) {
		return s.storage.Video().GetVideo(ctx, videoID)
	}
}

package tweet

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/models"
	"github.com/nkiryanov/videotube/internal/repository"
	"github.com/nkiryanov/videotube/internal/service/ownership"
)

type TweetService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *TweetService {
	return &TweetService{storage: storage}
}

func (s *TweetService) Create(ctx context.Context, ownerID uuid.UUID, content string) (models.Tweet, error) {
	content, err := validContent(content)
	if err != nil {
		return models.Tweet{}, err
	}

	return s.storage.Tweet().CreateTweet(ctx, models.Tweet{OwnerID: ownerID, Content: content})
}

func (s *TweetService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Tweet, error) {
	_, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.storage.Tweet().ListTweetsByOwner(ctx, userID)
}

func (s *TweetService) Update(ctx context.Context, principalID uuid.UUID, tweetID uuid.UUID, content string) (models.Tweet, error) {
	content, err := validContent(content)
	if err != nil {
		return models.Tweet{}, err
	}

	_, err = ownership.Authorize(ctx, principalID, s.load(tweetID))
	if err != nil {
		return models.Tweet{}, err
	}

	return s.storage.Tweet().UpdateTweet(ctx, tweetID, content)
}

func (s *TweetService) Delete(ctx context.Context, principalID uuid.UUID, tweetID uuid.UUID) error {
	_, err := ownership.Authorize(ctx, principalID, s.load(tweetID))
	if err != nil {
		return err
	}

	return s.storage.Tweet().DeleteTweet(ctx, tweetID)
}

func (s *TweetService) load(tweetID uuid.UUID) func(ctx context.Context) (models.Tweet, error) {
	return func(ctx context.Context) (models.Tweet, error) {
		return s.storage.Tweet().GetTweet(ctx, tweetID)
	}
}

func validContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: content is required", apperrors.ErrInvalidInput)
	}
	return content, nil
}

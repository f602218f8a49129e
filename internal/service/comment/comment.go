package comment

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

type CommentService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *CommentService {
	return &CommentService{storage: storage}
}

// Comments of existing video, page by page
func (s *CommentService) ListForVideo(ctx context.Context, q models.CommentQuery) (models.Page[models.Comment], error) {
	_, err := ownership.VisibleVideo(ctx, q.ViewerID, s.loadVideo(q.VideoID))
	if err != nil {
		return models.Page[models.Comment]{}, err
	}

	q.Page, q.Limit = models.NormalizePage(q.Page, q.Limit)
	comments, total, err := s.storage.Comment().ListComments(ctx, q)
	if err != nil {
		return models.Page[models.Comment]{}, err
	}

	return models.NewPage(comments, total, q.Page, q.Limit), nil
}

func (s *CommentService) Add(ctx context.Context, ownerID uuid.UUID, videoID uuid.UUID, content string) (models.Comment, error) {
	content, err := validContent(content)
	if err != nil {
		return models.Comment{}, err
	}

	_, err = ownership.VisibleVideo(ctx, ownerID, s.loadVideo(videoID))
	if err != nil {
		return models.Comment{}, err
	}

	return s.storage.Comment().CreateComment(ctx, models.Comment{
		VideoID: videoID,
		OwnerID: ownerID,
		Content: content,
	})
}

func (s *CommentService) Update(ctx context.Context, principalID uuid.UUID, commentID uuid.UUID, content string) (models.Comment, error) {
	content, err := validContent(content)
	if err != nil {
		return models.Comment{}, err
	}

	_, err = ownership.Authorize(ctx, principalID, s.load(commentID))
	if err != nil {
		return models.Comment{}, err
	}

	return s.storage.Comment().UpdateComment(ctx, commentID, content)
}

func (s *CommentService) Delete(ctx context.Context, principalID uuid.UUID, commentID uuid.UUID) error {
	_, err := ownership.Authorize(ctx, principalID, s.load(commentID))
	if err != nil {
		return err
	}

	return s.storage.Comment().DeleteComment(ctx, commentID)
}

func (s *CommentService) load(commentID uuid.UUID) func(ctx context.Context) (models.Comment, error) {
	return func(ctx context.Context) (models.Comment, error) {
		return s.storage.Comment().GetComment(ctx, commentID)
	}
}

func (s *CommentService) loadVideo(videoID uuid.UUID) func(ctx context.Context) (models.Video, error) {
	return func(ctx context.Context) (models.Video, error) {
		return s.storage.Video().GetVideo(ctx, videoID)
	}
}

func validContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: content is required", apperrors.ErrInvalidInput)
	}
	return content, nil
}

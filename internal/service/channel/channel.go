package channel

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/models"
	"github.com/nkiryanov/videotube/internal/repository"
)

// Channel dashboard: aggregates and videos of a user
type ChannelService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *ChannelService {
	return &ChannelService{storage: storage}
}

func (s *ChannelService) Stats(ctx context.Context, channelID uuid.UUID) (models.ChannelStats, error) {
	_, err := s.storage.User().GetUserByID(ctx, channelID)
	if err != nil {
		return models.ChannelStats{}, err
	}

	return s.storage.Video().ChannelStats(ctx, channelID)
}

// Videos of the channel. Drafts are included only when owner is looking
func (s *ChannelService) Videos(ctx context.Context, channelID uuid.UUID, viewerID uuid.UUID, page int, limit int) (models.Page[models.Video], error) {
	_, err := s.storage.User().GetUserByID(ctx, channelID)
	if err != nil {
		return models.Page[models.Video]{}, err
	}

	page, limit = models.NormalizePage(page, limit)
	videos, total, err := s.storage.Video().ListVideos(ctx, models.VideoQuery{
		OwnerID:  channelID,
		ViewerID: viewerID,
		SortBy:   models.VideoSortCreatedAt,
		SortDesc: true,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return models.Page[models.Video]{}, err
	}

	return models.NewPage(videos, total, page, limit), nil
}

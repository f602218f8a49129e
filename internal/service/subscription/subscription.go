package subscription

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/models"
	"github.com/nkiryanov/videotube/internal/repository"
)

type SubscriptionService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *SubscriptionService {
	return &SubscriptionService{storage: storage}
}

// Subscribe to channel or unsubscribe if subscribed already
// Returns true if subscribed after the call
func (s *SubscriptionService) Toggle(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) (bool, error) {
	if subscriberID == channelID {
		return false, apperrors.ErrSelfSubscription
	}

	_, err := s.storage.User().GetUserByID(ctx, channelID)
	if err != nil {
		return false, err
	}

	return s.storage.Subscription().ToggleSubscription(ctx, subscriberID, channelID)
}

func (s *SubscriptionService) Subscribers(ctx context.Context, channelID uuid.UUID) ([]models.User, error) {
	_, err := s.storage.User().GetUserByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	return s.storage.Subscription().ListSubscribers(ctx, channelID)
}

func (s *SubscriptionService) Channels(ctx context.Context, subscriberID uuid.UUID) ([]models.User, error) {
	_, err := s.storage.User().GetUserByID(ctx, subscriberID)
	if err != nil {
		return nil, err
	}

	return s.storage.Subscription().ListChannels(ctx, subscriberID)
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type Subscription struct {
	SubscriberID uuid.UUID
	ChannelID    uuid.UUID
	CreatedAt    time.Time
}

type ChannelStats struct {
	TotalVideos      int64
	TotalViews       int64
	TotalLikes       int64
	TotalSubscribers int64
}

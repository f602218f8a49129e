package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LikeTargetVideo   = "video"
	LikeTargetComment = "comment"
	LikeTargetTweet   = "tweet"
)

type Like struct {
	ID         uuid.UUID
	LikedBy    uuid.UUID
	TargetType string
	TargetID   uuid.UUID
	CreatedAt  time.Time
}

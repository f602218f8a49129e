package models

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID
	VideoID   uuid.UUID
	OwnerID   uuid.UUID
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Comment) Owner() uuid.UUID { return c.OwnerID }

type CommentQuery struct {
	VideoID  uuid.UUID
	Query    string
	OwnerID  uuid.UUID
	SortDesc bool
	Page     int
	Limit    int

	// Comments of a draft are listed for its owner only
	ViewerID uuid.UUID
}

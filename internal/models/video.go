package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Video struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	Title        string
	Description  string
	VideoURL     string
	VideoKey     string
	ThumbnailURL string
	ThumbnailKey string
	Duration     decimal.Decimal // seconds
	Views        int64
	IsPublished  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (v Video) Owner() uuid.UUID { return v.OwnerID }

// Drafts are visible to the owner only
func (v Video) VisibleTo(viewerID uuid.UUID) bool {
	return v.IsPublished || v.OwnerID == viewerID
}

type UpdateVideoParams struct {
	Title        *string
	Description  *string
	ThumbnailURL *string
	ThumbnailKey *string
}

// Filter and ordering for video listing
type VideoQuery struct {
	Query    string
	OwnerID  uuid.UUID // uuid.Nil means any owner
	SortBy   string
	SortDesc bool
	Page     int
	Limit    int

	// Unpublished videos are returned for the owner only
	ViewerID uuid.UUID
}

const (
	VideoSortCreatedAt = "createdAt"
	VideoSortViews     = "views"
	VideoSortTitle     = "title"
	VideoSortDuration  = "duration"
)

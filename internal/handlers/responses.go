package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/models"
)

// Public view of the user, credentials never leave the service
type userResponse struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Fullname   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Fullname:   u.Fullname,
		Avatar:     u.AvatarURL,
		CoverImage: u.CoverImageURL,
		CreatedAt:  u.CreatedAt,
	}
}

type videoResponse struct {
	ID          uuid.UUID `json:"id"`
	Owner       uuid.UUID `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newVideoResponse(v models.Video) videoResponse {
	duration, _ := v.Duration.Float64()
	return videoResponse{
		ID:          v.ID,
		Owner:       v.OwnerID,
		Title:       v.Title,
		Description: v.Description,
		VideoFile:   v.VideoURL,
		Thumbnail:   v.ThumbnailURL,
		Duration:    duration,
		Views:       v.Views,
		IsPublished: v.IsPublished,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

type commentResponse struct {
	ID        uuid.UUID `json:"id"`
	Video     uuid.UUID `json:"video"`
	Owner     uuid.UUID `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newCommentResponse(c models.Comment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		Video:     c.VideoID,
		Owner:     c.OwnerID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type tweetResponse struct {
	ID        uuid.UUID `json:"id"`
	Owner     uuid.UUID `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newTweetResponse(t models.Tweet) tweetResponse {
	return tweetResponse{
		ID:        t.ID,
		Owner:     t.OwnerID,
		Content:   t.Content,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

type channelStatsResponse struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalLikes       int64 `json:"totalLikes"`
	TotalSubscribers int64 `json:"totalSubscribers"`
}

type pageResponse[T any] struct {
	Docs       []T   `json:"docs"`
	TotalDocs  int64 `json:"totalDocs"`
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
}

func newPageResponse[M any, T any](p models.Page[M], convert func(M) T) pageResponse[T] {
	return pageResponse[T]{
		Docs:       mapSlice(p.Items, convert),
		TotalDocs:  p.Total,
		Page:       p.Page,
		TotalPages: p.TotalPages,
	}
}

// Never nil, so empty lists render as []
func mapSlice[M any, T any](items []M, convert func(M) T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, convert(item))
	}
	return out
}

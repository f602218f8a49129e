package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/models"
)

type VideoRepo struct {
	DB DBTX
}

const videoColumns = `id, owner_id, title, description, video_url, video_key, thumbnail_url, thumbnail_key, duration, views, is_published, created_at, updated_at`

// Sortable columns. Anything else falls back to created_at
var videoSortColumns = map[string]string{
	models.VideoSortCreatedAt: "created_at",
	models.VideoSortViews:     "views",
	models.VideoSortTitle:     "title",
	models.VideoSortDuration:  "duration",
}

const createVideo = `-- name: CreateVideo
INSERT INTO videos (id, owner_id, title, description, video_url, video_key, thumbnail_url, thumbnail_key, duration, is_published)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + videoColumns

func (r *VideoRepo) CreateVideo(ctx context.Context, v models.Video) (models.Video, error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createVideo, v.ID, v.OwnerID, v.Title, v.Description, v.VideoURL, v.VideoKey, v.ThumbnailURL, v.ThumbnailKey, v.Duration, v.IsPublished)
	video, err := pgx.CollectOneRow(rows, rowToVideo)
	if err != nil {
		return video, fmt.Errorf("db error: %w", err)
	}

	return video, nil
}

const getVideo = `-- name: GetVideo
SELECT ` + videoColumns + ` FROM videos WHERE id = $1
`

func (r *VideoRepo) GetVideo(ctx context.Context, id uuid.UUID) (models.Video, error) {
	rows, _ := r.DB.Query(ctx, getVideo, id)
	return collectVideo(rows)
}

func (r *VideoRepo) ListVideos(ctx context.Context, q models.VideoQuery) ([]models.Video, int64, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	add("(is_published OR owner_id = $%d)", q.ViewerID)
	if q.Query != "" {
		add("title ILIKE '%%' || $%d || '%%'", q.Query)
	}
	if q.OwnerID != uuid.Nil {
		add("owner_id = $%d", q.OwnerID)
	}
	filter := strings.Join(where, " AND ")

	var total int64
	err := r.DB.QueryRow(ctx, "SELECT count(*) FROM videos WHERE "+filter, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	column, ok := videoSortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	page, limit := models.NormalizePage(q.Page, q.Limit)
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(
		"SELECT %s FROM videos WHERE %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d",
		videoColumns, filter, column, direction, len(args)-1, len(args),
	)

	rows, _ := r.DB.Query(ctx, query, args...)
	videos, err := pgx.CollectRows(rows, rowToVideo)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return videos, total, nil
}

const updateVideo = `-- name: UpdateVideo
UPDATE videos
SET title = COALESCE($2::text, title),
    description = COALESCE($3::text, description),
    thumbnail_url = COALESCE($4::text, thumbnail_url),
    thumbnail_key = COALESCE($5::text, thumbnail_key),
    updated_at = now()
WHERE id = $1
RETURNING ` + videoColumns

func (r *VideoRepo) UpdateVideo(ctx context.Context, id uuid.UUID, p models.UpdateVideoParams) (models.Video, error) {
	rows, _ := r.DB.Query(ctx, updateVideo, id, p.Title, p.Description, p.ThumbnailURL, p.ThumbnailKey)
	return collectVideo(rows)
}

const setPublished = `-- name: SetPublished
UPDATE videos SET is_published = $2, updated_at = now()
WHERE id = $1
RETURNING ` + videoColumns

func (r *VideoRepo) SetPublished(ctx context.Context, id uuid.UUID, published bool) (models.Video, error) {
	rows, _ := r.DB.Query(ctx, setPublished, id, published)
	return collectVideo(rows)
}

const incrementViews = `-- name: IncrementViews
UPDATE videos SET views = views + 1 WHERE id = $1
`

func (r *VideoRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, incrementViews, id)
	return affectedOne(tag, err, apperrors.ErrVideoNotFound)
}

// Likes are polymorphic and have no foreign keys, so they are removed together with the video
const deleteVideo = `-- name: DeleteVideo
WITH video_likes AS (
	DELETE FROM likes WHERE target_type = 'video' AND target_id = $1
), comment_likes AS (
	DELETE FROM likes WHERE target_type = 'comment' AND target_id IN (SELECT id FROM comments WHERE video_id = $1)
)
DELETE FROM videos WHERE id = $1
`

func (r *VideoRepo) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteVideo, id)
	return affectedOne(tag, err, apperrors.ErrVideoNotFound)
}

const channelStats = `-- name: ChannelStats
SELECT
	(SELECT count(*) FROM videos WHERE owner_id = $1),
	(SELECT COALESCE(sum(views), 0)::bigint FROM videos WHERE owner_id = $1),
	(SELECT count(*) FROM likes l JOIN videos v ON l.target_type = 'video' AND l.target_id = v.id WHERE v.owner_id = $1),
	(SELECT count(*) FROM subscriptions WHERE channel_id = $1)
`

func (r *VideoRepo) ChannelStats(ctx context.Context, channelID uuid.UUID) (models.ChannelStats, error) {
	var s models.ChannelStats
	err := r.DB.QueryRow(ctx, channelStats, channelID).Scan(&s.TotalVideos, &s.TotalViews, &s.TotalLikes, &s.TotalSubscribers)
	if err != nil {
		return s, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func collectVideo(rows pgx.Rows) (models.Video, error) {
	video, err := pgx.CollectOneRow(rows, rowToVideo)

	switch {
	case err == nil:
		return video, nil
	case errors.Is(err, pgx.ErrNoRows):
		return video, apperrors.ErrVideoNotFound
	default:
		return video, fmt.Errorf("db error: %w", err)
	}
}

func rowToVideo(row pgx.CollectableRow) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.VideoKey, &v.ThumbnailURL, &v.ThumbnailKey, &v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

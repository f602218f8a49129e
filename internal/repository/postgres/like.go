package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/videotube/internal/models"
)

type LikeRepo struct {
	DB DBTX
}

// Insert happens only when nothing was deleted: one statement toggles the like
const toggleLike = `-- name: ToggleLike
WITH removed AS (
	DELETE FROM likes
	WHERE liked_by = $2 AND target_type = $3 AND target_id = $4
	RETURNING id
)
INSERT INTO likes (id, liked_by, target_type, target_id)
SELECT $1, $2, $3, $4
WHERE NOT EXISTS (SELECT 1 FROM removed)
RETURNING id
`

func (r *LikeRepo) ToggleLike(ctx context.Context, userID uuid.UUID, targetType string, targetID uuid.UUID) (bool, error) {
	rows, _ := r.DB.Query(ctx, toggleLike, uuid.New(), userID, targetType, targetID)
	inserted, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return len(inserted) == 1, nil
}

const listLikedVideos = `-- name: ListLikedVideos
SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.video_key, v.thumbnail_url, v.thumbnail_key,
	v.duration, v.views, v.is_published, v.created_at, v.updated_at
FROM likes l
JOIN videos v ON v.id = l.target_id
WHERE l.target_type = 'video' AND l.liked_by = $1 AND (v.is_published OR v.owner_id = $1)
ORDER BY l.created_at DESC, v.id
`

func (r *LikeRepo) ListLikedVideos(ctx context.Context, userID uuid.UUID) ([]models.Video, error) {
	rows, _ := r.DB.Query(ctx, listLikedVideos, userID)
	videos, err := pgx.CollectRows(rows, rowToVideo)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return videos, nil
}

const listLikedComments = `-- name: ListLikedComments
SELECT c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at
FROM likes l
JOIN comments c ON c.id = l.target_id
JOIN videos v ON v.id = c.video_id
WHERE l.target_type = 'comment' AND l.liked_by = $1 AND (v.is_published OR v.owner_id = $1)
ORDER BY l.created_at DESC, c.id
`

func (r *LikeRepo) ListLikedComments(ctx context.Context, userID uuid.UUID) ([]models.Comment, error) {
	rows, _ := r.DB.Query(ctx, listLikedComments, userID)
	comments, err := pgx.CollectRows(rows, rowToComment)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return comments, nil
}

const listLikedTweets = `-- name: ListLikedTweets
SELECT t.id, t.owner_id, t.content, t.created_at, t.updated_at
FROM likes l
JOIN tweets t ON t.id = l.target_id
WHERE l.target_type = 'tweet' AND l.liked_by = $1
ORDER BY l.created_at DESC, t.id
`

func (r *LikeRepo) ListLikedTweets(ctx context.Context, userID uuid.UUID) ([]models.Tweet, error) {
	rows, _ := r.DB.Query(ctx, listLikedTweets, userID)
	tweets, err := pgx.CollectRows(rows, rowToTweet)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tweets, nil
}

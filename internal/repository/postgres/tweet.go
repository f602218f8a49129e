package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/models"
)

type TweetRepo struct {
	DB DBTX
}

const tweetColumns = `id, owner_id, content, created_at, updated_at`

const createTweet = `-- name: CreateTweet
INSERT INTO tweets (id, owner_id, content)
VALUES ($1, $2, $3)
RETURNING ` + tweetColumns

func (r *TweetRepo) CreateTweet(ctx context.Context, t models.Tweet) (models.Tweet, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createTweet, t.ID, t.OwnerID, t.Content)
	tweet, err := pgx.CollectOneRow(rows, rowToTweet)
	if err != nil {
		return tweet, fmt.Errorf("db error: %w", err)
	}

	return tweet, nil
}

const getTweet = `-- name: GetTweet
SELECT ` + tweetColumns + ` FROM tweets WHERE id = $1
`

func (r *TweetRepo) GetTweet(ctx context.Context, id uuid.UUID) (models.Tweet, error) {
	rows, _ := r.DB.Query(ctx, getTweet, id)
	return collectTweet(rows)
}

const listTweetsByOwner = `-- name: ListTweetsByOwner
SELECT ` + tweetColumns + ` FROM tweets
WHERE owner_id = $1
ORDER BY created_at DESC, id
`

func (r *TweetRepo) ListTweetsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Tweet, error) {
	rows, _ := r.DB.Query(ctx, listTweetsByOwner, ownerID)
	tweets, err := pgx.CollectRows(rows, rowToTweet)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tweets, nil
}

const updateTweet = `-- name: UpdateTweet
UPDATE tweets SET content = $2, updated_at = now()
WHERE id = $1
RETURNING ` + tweetColumns

func (r *TweetRepo) UpdateTweet(ctx context.Context, id uuid.UUID, content string) (models.Tweet, error) {
	rows, _ := r.DB.Query(ctx, updateTweet, id, content)
	return collectTweet(rows)
}

const deleteTweet = `-- name: DeleteTweet
WITH tweet_likes AS (
	DELETE FROM likes WHERE target_type = 'tweet' AND target_id = $1
)
DELETE FROM tweets WHERE id = $1
`

func (r *TweetRepo) DeleteTweet(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteTweet, id)
	return affectedOne(tag, err, apperrors.ErrTweetNotFound)
}

func collectTweet(rows pgx.Rows) (models.Tweet, error) {
	tweet, err := pgx.CollectOneRow(rows, rowToTweet)

	switch {
	case err == nil:
		return tweet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tweet, apperrors.ErrTweetNotFound
	default:
		return tweet, fmt.Errorf("db error: %w", err)
	}
}

func rowToTweet(row pgx.CollectableRow) (models.Tweet, error) {
	var t models.Tweet
	err := row.Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/videotube/internal/models"
)

type SubscriptionRepo struct {
	DB DBTX
}

const toggleSubscription = `-- name: ToggleSubscription
WITH removed AS (
	DELETE FROM subscriptions
	WHERE subscriber_id = $1 AND channel_id = $2
	RETURNING subscriber_id
)
INSERT INTO subscriptions (subscriber_id, channel_id)
SELECT $1, $2
WHERE NOT EXISTS (SELECT 1 FROM removed)
RETURNING subscriber_id
`

func (r *SubscriptionRepo) ToggleSubscription(ctx context.Context, subscriberID uuid.UUID, channelID uuid.UUID) (bool, error) {
	rows, _ := r.DB.Query(ctx, toggleSubscription, subscriberID, channelID)
	inserted, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return len(inserted) == 1, nil
}

const listSubscribers = `-- name: ListSubscribers
SELECT u.id, u.created_at, u.username, u.email, u.fullname, u.avatar_url, u.cover_image_url, u.avatar_key, u.cover_image_key,
	u.password_hash, COALESCE(u.refresh_token_hash, '')
FROM subscriptions s
JOIN users u ON u.id = s.subscriber_id
WHERE s.channel_id = $1
ORDER BY s.created_at DESC, u.id
`

func (r *SubscriptionRepo) ListSubscribers(ctx context.Context, channelID uuid.UUID) ([]models.User, error) {
	rows, _ := r.DB.Query(ctx, listSubscribers, channelID)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

const listChannels = `-- name: ListChannels
SELECT u.id, u.created_at, u.username, u.email, u.fullname, u.avatar_url, u.cover_image_url, u.avatar_key, u.cover_image_key,
	u.password_hash, COALESCE(u.refresh_token_hash, '')
FROM subscriptions s
JOIN users u ON u.id = s.channel_id
WHERE s.subscriber_id = $1
ORDER BY s.created_at DESC, u.id
`

func (r *SubscriptionRepo) ListChannels(ctx context.Context, subscriberID uuid.UUID) ([]models.User, error) {
	rows, _ := r.DB.Query(ctx, listChannels, subscriberID)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

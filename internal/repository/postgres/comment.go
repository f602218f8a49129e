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

type CommentRepo struct {
	DB DBTX
}

const commentColumns = `id, video_id, owner_id, content, created_at, updated_at`

const createComment = `-- name: CreateComment
INSERT INTO comments (id, video_id, owner_id, content)
VALUES ($1, $2, $3, $4)
RETURNING ` + commentColumns

func (r *CommentRepo) CreateComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createComment, c.ID, c.VideoID, c.OwnerID, c.Content)
	comment, err := pgx.CollectOneRow(rows, rowToComment)
	if err != nil {
		return comment, fmt.Errorf("db error: %w", err)
	}

	return comment, nil
}

const getComment = `-- name: GetComment
SELECT ` + commentColumns + ` FROM comments WHERE id = $1
`

func (r *CommentRepo) GetComment(ctx context.Context, id uuid.UUID) (models.Comment, error) {
	rows, _ := r.DB.Query(ctx, getComment, id)
	return collectComment(rows)
}

func (r *CommentRepo) ListComments(ctx context.Context, q models.CommentQuery) ([]models.Comment, int64, error) {
	where := []string{"video_id = $1"}
	args := []any{q.VideoID}
	add := func(cond string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if q.Query != "" {
		add("content ILIKE '%%' || $%d || '%%'", q.Query)
	}
	if q.OwnerID != uuid.Nil {
		add("owner_id = $%d", q.OwnerID)
	}
	filter := strings.Join(where, " AND ")

	var total int64
	err := r.DB.QueryRow(ctx, "SELECT count(*) FROM comments WHERE "+filter, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	page, limit := models.NormalizePage(q.Page, q.Limit)
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(
		"SELECT %s FROM comments WHERE %s ORDER BY created_at %s, id LIMIT $%d OFFSET $%d",
		commentColumns, filter, direction, len(args)-1, len(args),
	)

	rows, _ := r.DB.Query(ctx, query, args...)
	comments, err := pgx.CollectRows(rows, rowToComment)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return comments, total, nil
}

const updateComment = `-- name: UpdateComment
UPDATE comments SET content = $2, updated_at = now()
WHERE id = $1
RETURNING ` + commentColumns

func (r *CommentRepo) UpdateComment(ctx context.Context, id uuid.UUID, content string) (models.Comment, error) {
	rows, _ := r.DB.Query(ctx, updateComment, id, content)
	return collectComment(rows)
}

const deleteComment = `-- name: DeleteComment
WITH comment_likes AS (
	DELETE FROM likes WHERE target_type = 'comment' AND target_id = $1
)
DELETE FROM comments WHERE id = $1
`

func (r *CommentRepo) DeleteComment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteComment, id)
	return affectedOne(tag, err, apperrors.ErrCommentNotFound)
}

func collectComment(rows pgx.Rows) (models.Comment, error) {
	comment, err := pgx.CollectOneRow(rows, rowToComment)

	switch {
	case err == nil:
		return comment, nil
	case errors.Is(err, pgx.ErrNoRows):
		return comment, apperrors.ErrCommentNotFound
	default:
		return comment, fmt.Errorf("db error: %w", err)
	}
}

func rowToComment(row pgx.CollectableRow) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

package ownership

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/models"
)

func TestAssertOwner(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()

	resources := []Owned{
		models.Video{OwnerID: alice},
		models.Comment{OwnerID: alice},
		models.Tweet{OwnerID: alice},
	}

	for _, resource := range resources {
		assert.NoError(t, AssertOwner(resource, alice))
		assert.ErrorIs(t, AssertOwner(resource, bob), apperrors.ErrForbidden)
		assert.ErrorIs(t, AssertOwner(resource, uuid.Nil), apperrors.ErrForbidden)
	}
}

func TestAuthorize(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	comment := models.Comment{ID: uuid.New(), OwnerID: alice, Content: "hi"}

	found := func(ctx context.Context) (models.Comment, error) { return comment, nil }
	missing := func(ctx context.Context) (models.Comment, error) {
		return models.Comment{}, apperrors.ErrCommentNotFound
	}

	t.Run("owner", func(t *testing.T) {
		got, err := Authorize(t.Context(), alice, found)

		require.NoError(t, err)
		assert.Equal(t, comment, got)
	})

	t.Run("not owner", func(t *testing.T) {
		got, err := Authorize(t.Context(), bob, found)

		require.ErrorIs(t, err, apperrors.ErrForbidden)
		assert.Zero(t, got, "resource not leaked to non owner")
	})

	t.Run("not found before forbidden", func(t *testing.T) {
		_, err := Authorize(t.Context(), bob, missing)

		require.ErrorIs(t, err, apperrors.ErrNotFound)
		require.NotErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestVisibleVideo(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	draft := models.Video{ID: uuid.New(), OwnerID: alice, Title: "draft"}
	published := models.Video{ID: uuid.New(), OwnerID: alice, Title: "published", IsPublished: true}

	loader := func(v models.Video) func(ctx context.Context) (models.Video, error) {
		return func(ctx context.Context) (models.Video, error) { return v, nil }
	}

	t.Run("published visible to everyone", func(t *testing.T) {
		for _, viewer := range []uuid.UUID{alice, bob, uuid.Nil} {
			got, err := VisibleVideo(t.Context(), viewer, loader(published))

			require.NoError(t, err)
			assert.Equal(t, published, got)
		}
	})

	t.Run("draft visible to owner", func(t *testing.T) {
		got, err := VisibleVideo(t.Context(), alice, loader(draft))

		require.NoError(t, err)
		assert.Equal(t, draft, got)
	})

	t.Run("draft of other user not found", func(t *testing.T) {
		got, err := VisibleVideo(t.Context(), bob, loader(draft))

		require.ErrorIs(t, err, apperrors.ErrVideoNotFound)
		require.NotErrorIs(t, err, apperrors.ErrForbidden)
		assert.Zero(t, got)
	})

	t.Run("load error returned as is", func(t *testing.T) {
		_, err := VisibleVideo(t.Context(), alice, func(ctx context.Context) (models.Video, error) {
			return models.Video{}, apperrors.ErrVideoNotFound
		})

		require.ErrorIs(t, err, apperrors.ErrVideoNotFound)
	})
}

package like

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/models"
	"github.com/nkiryanov/videotube/internal/testutil"
)

func TestLikeService(t *testing.T) {
	t.Parallel()

	alice, bob := uuid.New(), uuid.New()

	t.Run("toggle video twice", func(t *testing.T) {
		storage := testutil.NewMemStorage()
		s := NewService(storage)
		video, err := storage.Video().CreateVideo(t.Context(), models.Video{OwnerID: alice, Title: "v", IsPublished: true})
		require.NoError(t, err)

		liked, err := s.ToggleVideo(t.Context(), bob, video.ID)
		require.NoError(t, err)
		assert.True(t, liked)

		videos, err := s.LikedVideos(t.Context(), bob)
		require.NoError(t, err)
		require.Len(t, videos, 1)
		assert.Equal(t, video.ID, videos[0].ID)

		liked, err = s.ToggleVideo(t.Context(), bob, video.ID)
		require.NoError(t, err)
		assert.False(t, liked)

		videos, err = s.LikedVideos(t.Context(), bob)
		require.NoError(t, err)
		assert.Empty(t, videos)
	})

	t.Run("toggle comment and tweet", func(t *testing.T) {
		storage := testutil.NewMemStorage()
		s := NewService(storage)
		video, err := storage.Video().CreateVideo(t.Context(), models.Video{OwnerID: alice, Title: "v", IsPublished: true})
		require.NoError(t, err)
		comment, err := storage.Comment().CreateComment(t.Context(), models.Comment{VideoID: video.ID, OwnerID: alice, Content: "c"})
		require.NoError(t, err)
		tweet, err := storage.Tweet().CreateTweet(t.Context(), models.Tweet{OwnerID: alice, Content: "t"})
		require.NoError(t, err)

		liked, err := s.ToggleComment(t.Context(), bob, comment.ID)
		require.NoError(t, err)
		assert.True(t, liked)

		liked, err = s.ToggleTweet(t.Context(), bob, tweet.ID)
		require.NoError(t, err)
		assert.True(t, liked)

		liked, err = s.ToggleTweet(t.Context(), alice, tweet.ID)
		require.NoError(t, err)
		assert.True(t, liked, "likes are per user")

		comments, err := s.LikedComments(t.Context(), bob)
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, comment.ID, comments[0].ID)

		tweets, err := s.LikedTweets(t.Context(), bob)
		require.NoError(t, err)
		require.Len(t, tweets, 1)
		assert.Equal(t, tweet.ID, tweets[0].ID)

		comments, err = s.LikedComments(t.Context(), alice)
		require.NoError(t, err)
		assert.Empty(t, comments, "alice liked only the tweet")
	})

	t.Run("liked lists newest first", func(t *testing.T) {
		storage := testutil.NewMemStorage()
		s := NewService(storage)
		first, err := storage.Tweet().CreateTweet(t.Context(), models.Tweet{OwnerID: alice, Content: "first"})
		require.NoError(t, err)
		second, err := storage.Tweet().CreateTweet(t.Context(), models.Tweet{OwnerID: alice, Content: "second"})
		require.NoError(t, err)

		_, err = s.ToggleTweet(t.Context(), bob, second.ID)
		require.NoError(t, err)
		_, err = s.ToggleTweet(t.Context(), bob, first.ID)
		require.NoError(t, err)

		tweets, err := s.LikedTweets(t.Context(), bob)
		require.NoError(t, err)
		require.Len(t, tweets, 2)
		assert.Equal(t, first.ID, tweets[0].ID)
		assert.Equal(t, second.ID, tweets[1].ID)
	})

	t.Run("drafts of others", func(t *testing.T) {
		storage := testutil.NewMemStorage()
		s := NewService(storage)
		draft, err := storage.Video().CreateVideo(t.Context(), models.Video{OwnerID: alice, Title: "draft"})
		require.NoError(t, err)
		comment, err := storage.Comment().CreateComment(t.Context(), models.Comment{VideoID: draft.ID, OwnerID: alice, Content: "c"})
		require.NoError(t, err)

		_, err = s.ToggleVideo(t.Context(), bob, draft.ID)
		require.ErrorIs(t, err, apperrors.ErrVideoNotFound)

		_, err = s.ToggleComment(t.Context(), bob, comment.ID)
		require.ErrorIs(t, err, apperrors.ErrCommentNotFound)

		videos, err := s.LikedVideos(t.Context(), bob)
		require.NoError(t, err)
		assert.Empty(t, videos, "nothing liked")

		liked, err := s.ToggleVideo(t.Context(), alice, draft.ID)
		require.NoError(t, err)
		assert.True(t, liked, "owner may like own draft")

		liked, err = s.ToggleComment(t.Context(), alice, comment.ID)
		require.NoError(t, err)
		assert.True(t, liked)
	})

	t.Run("liked comment hidden when video unpublished", func(t *testing.T) {
		storage := testutil.NewMemStorage()
		s := NewService(storage)
		video, err := storage.Video().CreateVideo(t.Context(), models.Video{OwnerID: alice, Title: "v", IsPublished: true})
		require.NoError(t, err)
		comment, err := storage.Comment().CreateComment(t.Context(), models.Comment{VideoID: video.ID, OwnerID: bob, Content: "c"})
		require.NoError(t, err)

		_, err = s.ToggleComment(t.Context(), bob, comment.ID)
		require.NoError(t, err)

		_, err = storage.Video().SetPublished(t.Context(), video.ID, false)
		require.NoError(t, err)

		comments, err := s.LikedComments(t.Context(), bob)
		require.NoError(t, err)
		assert.Empty(t, comments)

		comments, err = s.LikedComments(t.Context(), alice)
		require.NoError(t, err)
		assert.Empty(t, comments)
	})

	t.Run("missing targets", func(t *testing.T) {
		s := NewService(testutil.NewMemStorage())

		_, err := s.ToggleVideo(t.Context(), bob, uuid.New())
		require.ErrorIs(t, err, apperrors.ErrVideoNotFound)

		_, err = s.ToggleComment(t.Context(), bob, uuid.New())
		require.ErrorIs(t, err, apperrors.ErrCommentNotFound)

		_, err = s.ToggleTweet(t.Context(), bob, uuid.New())
		require.ErrorIs(t, err, apperrors.ErrTweetNotFound)
	})
}

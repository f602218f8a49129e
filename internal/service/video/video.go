package video

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/logger"
	"github.com/nkiryanov/videotube/internal/media"
	"github.com/nkiryanov/videotube/internal/models"
	"github.com/nkiryanov/videotube/internal/repository"
	"github.com/nkiryanov/videotube/internal/service/ownership"
)

const (
	videoFolder     = "videos"
	thumbnailFolder = "thumbnails"
)

type File = media.File

type PublishParams struct {
	Title       string
	Description string
	Duration    decimal.Decimal
	Video       File
	Thumbnail   File
}

type UpdateParams struct {
	Title       *string
	Description *string

	// New thumbnail replaces the old one
	Thumbnail *File
}

type VideoService struct {
	storage repository.Storage
	media   media.Store
	logger  logger.Logger
}

func NewService(storage repository.Storage, store media.Store, l logger.Logger) *VideoService {
	if store == nil {
		store = media.DisabledStore{}
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &VideoService{
		storage: storage,
		media:   store,
		logger:  l,
	}
}

// Upload video with thumbnail and save it
// Uploaded objects are removed if anything fails
func (s *VideoService) Publish(ctx context.Context, ownerID uuid.UUID, p PublishParams, published bool) (models.Video, error) {
	if strings.TrimSpace(p.Title) == "" {
		return models.Video{}, fmt.Errorf("%w: title is required", apperrors.ErrInvalidInput)
	}
	if p.Duration.IsNegative() {
		return models.Video{}, fmt.Errorf("%w: duration must not be negative", apperrors.ErrInvalidInput)
	}

	var videoObj, thumbObj media.Object
	videoKey := media.NewKey(videoFolder, p.Video.Name)
	thumbKey := media.NewKey(thumbnailFolder, p.Thumbnail.Name)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		videoObj, err = s.media.Save(gctx, videoKey, p.Video.ContentType, p.Video.Body)
		return err
	})
	g.Go(func() (err error) {
		thumbObj, err = s.media.Save(gctx, thumbKey, p.Thumbnail.ContentType, p.Thumbnail.Body)
		return err
	})
	if err := g.Wait(); err != nil {
		s.removeMedia(ctx, videoKey, thumbKey)
		return models.Video{}, fmt.Errorf("can't upload video. Err: %w", err)
	}

	video, err := s.storage.Video().CreateVideo(ctx, models.Video{
		OwnerID:      ownerID,
		Title:        strings.TrimSpace(p.Title),
		Description:  strings.TrimSpace(p.Description),
		VideoURL:     videoObj.URL,
		VideoKey:     videoObj.Key,
		ThumbnailURL: thumbObj.URL,
		ThumbnailKey: thumbObj.Key,
		Duration:     p.Duration,
		IsPublished:  published,
	})
	if err != nil {
		s.removeMedia(ctx, videoKey, thumbKey)
		return models.Video{}, err
	}

	return video, nil
}

// Get video and count the view
// Unpublished video exists for its owner only
func (s *VideoService) Get(ctx context.Context, viewerID uuid.UUID, videoID uuid.UUID) (models.Video, error) {
	video, err := ownership.VisibleVideo(ctx, viewerID, s.load(videoID))
	if err != nil {
		return video, err
	}

	err = s.storage.Video().IncrementViews(ctx, videoID)
	if err != nil {
		return models.Video{}, err
	}
	video.Views++

	return video, nil
}

func (s *VideoService) List(ctx context.Context, q models.VideoQuery) (models.Page[models.Video], error) {
	q.Page, q.Limit = models.NormalizePage(q.Page, q.Limit)

	videos, total, err := s.storage.Video().ListVideos(ctx, q)
	if err != nil {
		return models.Page[models.Video]{}, err
	}

	return models.NewPage(videos, total, q.Page, q.Limit), nil
}

func (s *VideoService) Update(ctx context.Context, principalID uuid.UUID, videoID uuid.UUID, p UpdateParams) (models.Video, error) {
	old, err := ownership.Authorize(ctx, principalID, s.load(videoID))
	if err != nil {
		return old, err
	}

	params := models.UpdateVideoParams{Title: trimmed(p.Title), Description: trimmed(p.Description)}
	if params.Title != nil && *params.Title == "" {
		return models.Video{}, fmt.Errorf("%w: title must not be empty", apperrors.ErrInvalidInput)
	}

	if p.Thumbnail != nil {
		key := media.NewKey(thumbnailFolder, p.Thumbnail.Name)
		obj, err := s.media.Save(ctx, key, p.Thumbnail.ContentType, p.Thumbnail.Body)
		if err != nil {
			return models.Video{}, fmt.Errorf("can't upload thumbnail. Err: %w", err)
		}
		params.ThumbnailURL, params.ThumbnailKey = &obj.URL, &obj.Key
	}

	video, err := s.storage.Video().UpdateVideo(ctx, videoID, params)
	if err != nil {
		if params.ThumbnailKey != nil {
			s.removeMedia(ctx, *params.ThumbnailKey)
		}
		return video, err
	}

	if params.ThumbnailKey != nil {
		s.removeMedia(ctx, old.ThumbnailKey)
	}

	return video, nil
}

func (s *VideoService) Delete(ctx context.Context, principalID uuid.UUID, videoID uuid.UUID) error {
	video, err := ownership.Authorize(ctx, principalID, s.load(videoID))
	if err != nil {
		return err
	}

	err = s.storage.Video().DeleteVideo(ctx, videoID)
	if err != nil {
		return err
	}

	s.removeMedia(ctx, video.VideoKey, video.ThumbnailKey)
	return nil
}

func (s *VideoService) TogglePublish(ctx context.Context, principalID uuid.UUID, videoID uuid.UUID) (models.Video, error) {
	video, err := ownership.Authorize(ctx, principalID, s.load(videoID))
	if err != nil {
		return video, err
	}

	return s.storage.Video().SetPublished(ctx, videoID, !video.IsPublished)
}

func (s *VideoService) load(videoID uuid.UUID) func(ctx context.Context) (models.Video, error) {
	return func(ctx context.Context) (models.Video, error) {
		return s.storage.Video().GetVideo(ctx, videoID)
	}
}

// Best effort: orphaned objects are only logged
func (s *VideoService) removeMedia(ctx context.Context, keys ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.media.Delete(ctx, key); err != nil {
			s.logger.Warn("Can't remove media object", "key", key, "error", err)
		}
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

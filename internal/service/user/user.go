package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/logger"
	"github.com/nkiryanov/videotube/internal/media"
	"github.com/nkiryanov/videotube/internal/models"
	"github.com/nkiryanov/videotube/internal/repository"
)

const (
	avatarFolder = "avatars"
	coverFolder  = "covers"
)

// Account details of registered users
type UserService struct {
	userRepo repository.UserRepo
	media    media.Store
	logger   logger.Logger
}

func NewService(userRepo repository.UserRepo, store media.Store, l logger.Logger) *UserService {
	if store == nil {
		store = media.DisabledStore{}
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &UserService{
		userRepo: userRepo,
		media:    store,
		logger:   l,
	}
}

func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

// Update account details, nil fields are kept
// Returns apperrors.ErrUserAlreadyExists if email is taken
func (s *UserService) UpdateAccount(ctx context.Context, userID uuid.UUID, params models.UpdateAccountParams) (models.User, error) {
	if params.Fullname != nil {
		fullname := strings.TrimSpace(*params.Fullname)
		if fullname == "" {
			return models.User{}, fmt.Errorf("%w: fullname must not be empty", apperrors.ErrInvalidInput)
		}
		params.Fullname = &fullname
	}
	if params.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*params.Email))
		if email == "" {
			return models.User{}, fmt.Errorf("%w: email must not be empty", apperrors.ErrInvalidInput)
		}
		params.Email = &email
	}

	user, err := s.userRepo.UpdateAccount(ctx, userID, params)
	if err != nil {
		return user, fmt.Errorf("can't update account. Err: %w", err)
	}

	return user, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, f media.File) (models.User, error) {
	return s.replaceImage(ctx, userID, models.UserImageAvatar, f)
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, f media.File) (models.User, error) {
	return s.replaceImage(ctx, userID, models.UserImageCover, f)
}

// Upload new image and point user to it
// New object is removed if user can't be updated, old one after successful update
func (s *UserService) replaceImage(ctx context.Context, userID uuid.UUID, kind string, f media.File) (models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return user, err
	}

	oldKey, folder := user.AvatarKey, avatarFolder
	if kind == models.UserImageCover {
		oldKey, folder = user.CoverImageKey, coverFolder
	}

	obj, err := s.media.Save(ctx, media.NewKey(folder, f.Name), f.ContentType, f.Body)
	if err != nil {
		return models.User{}, fmt.Errorf("can't upload image. Err: %w", err)
	}

	updated, err := s.userRepo.SetImage(ctx, userID, kind, obj.URL, obj.Key)
	if err != nil {
		s.removeMedia(ctx, obj.Key)
		return models.User{}, err
	}

	s.removeMedia(ctx, oldKey)
	return updated, nil
}

// Best effort: orphaned objects are only logged
func (s *UserService) removeMedia(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.media.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("Can't remove media object", "key", key, "error", err)
	}
}

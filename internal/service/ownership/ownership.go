package ownership

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/models"
)

// Resource created by some user. Only the owner may change or delete it
type Owned interface {
	Owner() uuid.UUID
}

// Return apperrors.ErrForbidden if principal does not own the resource
func AssertOwner(resource Owned, principalID uuid.UUID) error {
	if resource.Owner() != principalID {
		return fmt.Errorf("%w: not an owner", apperrors.ErrForbidden)
	}
	return nil
}

// Load resource and check ownership
// Load errors are returned as is, so not existing resource is NotFound and never Forbidden
func Authorize[T Owned](ctx context.Context, principalID uuid.UUID, load func(ctx context.Context) (T, error)) (T, error) {
	resource, err := load(ctx)
	if err != nil {
		return resource, err
	}

	if err := AssertOwner(resource, principalID); err != nil {
		var zero T
		return zero, err
	}

	return resource, nil
}

// Load video the viewer is allowed to see
// Someone else's draft is reported as apperrors.ErrVideoNotFound, the same as missing one
func VisibleVideo(ctx context.Context, viewerID uuid.UUID, load func(ctx context.Context) (models.Video, error)) (models.Video, error) {
	video, err := load(ctx)
	if err != nil {
		return models.Video{}, err
	}

	if !video.VisibleTo(viewerID) {
		return models.Video{}, apperrors.ErrVideoNotFound
	}

	return video, nil
}

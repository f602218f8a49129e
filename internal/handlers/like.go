package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/handlers/render"
	"github.com/nkiryanov/videotube/internal/logger"
)

type toggleFunc func(ctx context.Context, userID uuid.UUID, targetID uuid.UUID) (bool, error)

// Same handler toggles likes of videos, comments and tweets
func handleToggleLike(toggle toggleFunc, l logger.Logger) http.Handler {
	type response struct {
		Liked bool `json:"liked"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		targetID, ok := pathUUID(w, r, "targetID")
		if !ok {
			return
		}

		liked, err := toggle(r.Context(), user.ID, targetID)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		message := "Like removed"
		if liked {
			message = "Liked"
		}
		render.Success(w, http.StatusOK, response{Liked: liked}, message)
	})
}

// Liked items of current user, newest like first
func handleLiked[T any, R any](list func(ctx context.Context, userID uuid.UUID) ([]T, error), toResponse func(T) R, message string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		items, err := list(r.Context(), user.ID)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, mapSlice(items, toResponse), message)
	})
}

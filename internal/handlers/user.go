package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/handlers/render"
	"github.com/nkiryanov/videotube/internal/logger"
	"github.com/nkiryanov/videotube/internal/media"
	"github.com/nkiryanov/videotube/internal/models"
)

// Avatar and cover image request size
const maxImageUploadSize = 10 << 20

type imageUpdateFunc func(ctx context.Context, userID uuid.UUID, f media.File) (models.User, error)

func handleUserMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		render.Success(w, http.StatusOK, newUserResponse(user), "Current user fetched")
	})
}

// Channel owner profile
func handleUserProfile(userService userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUUID(w, r, "userID")
		if !ok {
			return
		}

		user, err := userService.Get(r.Context(), userID)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, newUserResponse(user), "User fetched")
	})
}

func handleUpdateAccount(userService userService, l logger.Logger) http.Handler {
	type request struct {
		Fullname *string `json:"fullName" validate:"omitempty,min=1,max=100"`
		Email    *string `json:"email" validate:"omitempty,email,max=254"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		updated, err := userService.UpdateAccount(r.Context(), user.ID, models.UpdateAccountParams{
			Fullname: data.Fullname,
			Email:    data.Email,
		})
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, newUserResponse(updated), "Account details updated")
	})
}

// Replace user image with the file sent in multipart field
func handleUpdateUserImage(update imageUpdateFunc, field string, message string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxImageUploadSize)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			render.ServiceError(w, "Expected multipart form with "+field, http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll() // nolint:errcheck

		file, ok := formFile(w, r, field)
		if !ok {
			return
		}
		defer file.Close() // nolint:errcheck

		updated, err := update(r.Context(), user.ID, file.File)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, newUserResponse(updated), message)
	})
}

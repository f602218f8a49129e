package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/handlers/middleware"
	"github.com/nkiryanov/videotube/internal/handlers/render"
	"github.com/nkiryanov/videotube/internal/handlers/userctx"
	"github.com/nkiryanov/videotube/internal/logger"
	"github.com/nkiryanov/videotube/internal/models"
)

// Render service error; unexpected ones are logged since the client gets no details
func serviceError(w http.ResponseWriter, r *http.Request, l logger.Logger, err error) {
	code, _ := render.StatusOf(err)
	if code >= http.StatusInternalServerError {
		l.Error("Request failed", "error", err, "request_id", middleware.RequestIDFromContext(r.Context()))
	}
	render.AppError(w, err)
}

// User set by auth middleware. Missing user means the route is not wrapped with it
func currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
	return user, ok
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		render.ServiceError(w, "Invalid "+name, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

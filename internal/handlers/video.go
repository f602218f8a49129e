package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/videotube/internal/handlers/render"
	"github.com/nkiryanov/videotube/internal/handlers/userctx"
	"github.com/nkiryanov/videotube/internal/logger"
	"github.com/nkiryanov/videotube/internal/media"
	"github.com/nkiryanov/videotube/internal/models"
	"github.com/nkiryanov/videotube/internal/service/video"
)

const (
	// Upload request size including video, thumbnail and fields
	maxUploadSize = 1 << 30

	// Parts above it are spooled to temporary files
	multipartMemory = 32 << 20
)

// Listing query common to paginated endpoints
type pageQuery struct {
	Page     int    `form:"page" validate:"gte=0"`
	Limit    int    `form:"limit" validate:"gte=0,lte=100"`
	SortType string `form:"sortType" validate:"omitempty,oneof=asc desc"`
}

func parsePageQuery(w http.ResponseWriter, r *http.Request) (pageQuery, bool) {
	q := r.URL.Query()
	var pq pageQuery

	for name, dst := range map[string]*int{"page": &pq.Page, "limit": &pq.Limit} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			render.ServiceError(w, "Invalid "+name, http.StatusBadRequest)
			return pq, false
		}
		*dst = n
	}
	pq.SortType = strings.ToLower(q.Get("sortType"))

	return pq, render.Validate(w, pq) == nil
}

// Published videos of everybody; search, filter by owner, sort and paginate
func handleListVideos(videoService videoService, l logger.Logger) http.Handler {
	type filter struct {
		Query  string `form:"query" validate:"max=200"`
		SortBy string `form:"sortBy" validate:"omitempty,oneof=createdAt views title duration"`
		UserID string `form:"userId" validate:"omitempty,uuid"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pq, ok := parsePageQuery(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		f := filter{Query: strings.TrimSpace(q.Get("query")), SortBy: q.Get("sortBy"), UserID: q.Get("userId")}
		if render.Validate(w, f) != nil {
			return
		}

		query := models.VideoQuery{
			Query:    f.Query,
			SortBy:   f.SortBy,
			SortDesc: pq.SortType != "asc",
			Page:     pq.Page,
			Limit:    pq.Limit,
		}
		if f.UserID != "" {
			query.OwnerID = uuid.MustParse(f.UserID)
		}
		// Route is public, drafts show up only when owner is known
		if user, ok := userctx.FromContext(r.Context()); ok {
			query.ViewerID = user.ID
		}

		page, err := videoService.List(r.Context(), query)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, newPageResponse(page, newVideoResponse), "Videos fetched")
	})
}

// Multipart upload: title, description, duration, videoFile and thumbnail
func handlePublishVideo(videoService videoService, l logger.Logger) http.Handler {
	type form struct {
		Title       string `form:"title" validate:"required,max=200"`
		Description string `form:"description" validate:"max=5000"`
		Duration    string `form:"duration" validate:"omitempty,numeric"`
		Publish     string `form:"isPublished" validate:"omitempty,boolean"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			render.ServiceError(w, "Expected multipart form with video and thumbnail", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll() // nolint:errcheck

		data := form{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Duration:    r.FormValue("duration"),
			Publish:     r.FormValue("isPublished"),
		}
		if render.Validate(w, data) != nil {
			return
		}

		duration := decimal.Zero
		if data.Duration != "" {
			duration, _ = decimal.NewFromString(data.Duration)
		}
		published := true
		if data.Publish != "" {
			published, _ = strconv.ParseBool(data.Publish)
		}

		videoFile, ok := formFile(w, r, "videoFile")
		if !ok {
			return
		}
		defer videoFile.Close() // nolint:errcheck
		thumbnail, ok := formFile(w, r, "thumbnail")
		if !ok {
			return
		}
		defer thumbnail.Close() // nolint:errcheck

		created, err := videoService.Publish(r.Context(), user.ID, video.PublishParams{
			Title:       data.Title,
			Description: data.Description,
			Duration:    duration,
			Video:       videoFile.File,
			Thumbnail:   thumbnail.File,
		}, published)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusCreated, newVideoResponse(created), "Video published")
	})
}

func handleGetVideo(videoService videoService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		videoID, ok := pathUUID(w, r, "videoID")
		if !ok {
			return
		}

		v, err := videoService.Get(r.Context(), user.ID, videoID)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, newVideoResponse(v), "Video fetched")
	})
}

// Title and description as JSON, or multipart form when thumbnail is replaced as well
func handleUpdateVideo(videoService videoService, l logger.Logger) http.Handler {
	type request struct {
		Title       *string `json:"title" validate:"omitempty,max=200"`
		Description *string `json:"description" validate:"omitempty,max=5000"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		videoID, ok := pathUUID(w, r, "videoID")
		if !ok {
			return
		}

		var params video.UpdateParams
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
			if err := r.ParseMultipartForm(multipartMemory); err != nil {
				render.ServiceError(w, "Invalid multipart form", http.StatusBadRequest)
				return
			}
			defer r.MultipartForm.RemoveAll() // nolint:errcheck

			var data request
			if values, ok := r.MultipartForm.Value["title"]; ok && len(values) > 0 {
				data.Title = &values[0]
			}
			if values, ok := r.MultipartForm.Value["description"]; ok && len(values) > 0 {
				data.Description = &values[0]
			}
			if render.Validate(w, data) != nil {
				return
			}
			params.Title, params.Description = data.Title, data.Description

			if _, ok := r.MultipartForm.File["thumbnail"]; ok {
				thumbnail, ok := formFile(w, r, "thumbnail")
				if !ok {
					return
				}
				defer thumbnail.Close() // nolint:errcheck
				params.Thumbnail = &thumbnail.File
			}
		} else {
			data, err := render.BindAndValidate[request](w, r)
			if err != nil {
				return
			}
			params.Title, params.Description = data.Title, data.Description
		}

		updated, err := videoService.Update(r.Context(), user.ID, videoID, params)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, newVideoResponse(updated), "Video updated")
	})
}

func handleDeleteVideo(videoService videoService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		videoID, ok := pathUUID(w, r, "videoID")
		if !ok {
			return
		}

		err := videoService.Delete(r.Context(), user.ID, videoID)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, struct{}{}, "Video deleted")
	})
}

func handleTogglePublish(videoService videoService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		videoID, ok := pathUUID(w, r, "videoID")
		if !ok {
			return
		}

		updated, err := videoService.TogglePublish(r.Context(), user.ID, videoID)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, newVideoResponse(updated), "Publish status toggled")
	})
}

type uploadedFile struct {
	media.File
	closer multipart.File
}

func (f uploadedFile) Close() error {
	return f.closer.Close()
}

// File part of parsed multipart form, renders 400 if it is missing
func formFile(w http.ResponseWriter, r *http.Request, name string) (uploadedFile, bool) {
	file, header, err := r.FormFile(name)
	if err != nil {
		message := "Can't read " + name
		if errors.Is(err, http.ErrMissingFile) {
			message = "File " + name + " is required"
		}
		render.ServiceError(w, message, http.StatusBadRequest)
		return uploadedFile{}, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return uploadedFile{
		File:   media.File{Name: header.Filename, ContentType: contentType, Body: file},
		closer: file,
	}, true
}

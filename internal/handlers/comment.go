package handlers

import (
	"net/http"
	"strings"

	"github.com/nkiryanov/videotube/internal/handlers/render"
	"github.com/nkiryanov/videotube/internal/logger"
	"github.com/nkiryanov/videotube/internal/models"
)

type contentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// Oldest first unless sortType=desc
func handleListComments(commentService commentService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		videoID, ok := pathUUID(w, r, "videoID")
		if !ok {
			return
		}
		pq, ok := parsePageQuery(w, r)
		if !ok {
			return
		}

		page, err := commentService.ListForVideo(r.Context(), models.CommentQuery{
			ViewerID: user.ID,
			VideoID:  videoID,
			Query:    strings.TrimSpace(r.URL.Query().Get("query")),
			SortDesc: pq.SortType == "desc",
			Page:     pq.Page,
			Limit:    pq.Limit,
		})
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, newPageResponse(page, newCommentResponse), "Comments fetched")
	})
}

func handleAddComment(commentService commentService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		videoID, ok := pathUUID(w, r, "videoID")
		if !ok {
			return
		}
		data, err := render.BindAndValidate[contentRequest](w, r)
		if err != nil {
			return
		}

		comment, err := commentService.Add(r.Context(), user.ID, videoID, data.Content)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusCreated, newCommentResponse(comment), "Comment added")
	})
}

func handleUpdateComment(commentService commentService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		commentID, ok := pathUUID(w, r, "commentID")
		if !ok {
			return
		}
		data, err := render.BindAndValidate[contentRequest](w, r)
		if err != nil {
			return
		}

		comment, err := commentService.Update(r.Context(), user.ID, commentID, data.Content)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, newCommentResponse(comment), "Comment updated")
	})
}

func handleDeleteComment(commentService commentService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		commentID, ok := pathUUID(w, r, "commentID")
		if !ok {
			return
		}

		err := commentService.Delete(r.Context(), user.ID, commentID)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, struct{}{}, "Comment deleted")
	})
}

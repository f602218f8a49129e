package handlers

import (
	"net/http"

	"github.com/nkiryanov/videotube/internal/handlers/render"
	"github.com/nkiryanov/videotube/internal/logger"
)

func handleChannelStats(channelService channelService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		channelID, ok := pathUUID(w, r, "channelID")
		if !ok {
			return
		}

		stats, err := channelService.Stats(r.Context(), channelID)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, channelStatsResponse(stats), "Channel stats fetched")
	})
}

// Drafts are listed only for the channel owner
func handleChannelVideos(channelService channelService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		channelID, ok := pathUUID(w, r, "channelID")
		if !ok {
			return
		}
		pq, ok := parsePageQuery(w, r)
		if !ok {
			return
		}

		page, err := channelService.Videos(r.Context(), channelID, user.ID, pq.Page, pq.Limit)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, newPageResponse(page, newVideoResponse), "Channel videos fetched")
	})
}

func handleHealthcheck() http.Handler {
	type response struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		render.Success(w, http.StatusOK, response{Status: "ok"}, "OK")
	})
}

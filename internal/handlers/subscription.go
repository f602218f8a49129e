package handlers

import (
	"net/http"

	"github.com/nkiryanov/videotube/internal/handlers/render"
	"github.com/nkiryanov/videotube/internal/logger"
)

func handleToggleSubscription(subscriptionService subscriptionService, l logger.Logger) http.Handler {
	type response struct {
		Subscribed bool `json:"subscribed"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		channelID, ok := pathUUID(w, r, "channelID")
		if !ok {
			return
		}

		subscribed, err := subscriptionService.Toggle(r.Context(), user.ID, channelID)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		message := "Unsubscribed"
		if subscribed {
			message = "Subscribed"
		}
		render.Success(w, http.StatusOK, response{Subscribed: subscribed}, message)
	})
}

func handleChannelSubscribers(subscriptionService subscriptionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		channelID, ok := pathUUID(w, r, "channelID")
		if !ok {
			return
		}

		users, err := subscriptionService.Subscribers(r.Context(), channelID)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, mapSlice(users, newUserResponse), "Subscribers fetched")
	})
}

func handleSubscribedChannels(subscriptionService subscriptionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subscriberID, ok := pathUUID(w, r, "subscriberID")
		if !ok {
			return
		}

		channels, err := subscriptionService.Channels(r.Context(), subscriberID)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, mapSlice(channels, newUserResponse), "Subscribed channels fetched")
	})
}

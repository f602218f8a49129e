package handlers

import (
	"net/http"

	"github.com/nkiryanov/videotube/internal/handlers/render"
	"github.com/nkiryanov/videotube/internal/logger"
)

func handleCreateTweet(tweetService tweetService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		data, err := render.BindAndValidate[contentRequest](w, r)
		if err != nil {
			return
		}

		tweet, err := tweetService.Create(r.Context(), user.ID, data.Content)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusCreated, newTweetResponse(tweet), "Tweet created")
	})
}

func handleUserTweets(tweetService tweetService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUUID(w, r, "userID")
		if !ok {
			return
		}

		tweets, err := tweetService.ListByUser(r.Context(), userID)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, mapSlice(tweets, newTweetResponse), "Tweets fetched")
	})
}

func handleUpdateTweet(tweetService tweetService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		tweetID, ok := pathUUID(w, r, "tweetID")
		if !ok {
			return
		}
		data, err := render.BindAndValidate[contentRequest](w, r)
		if err != nil {
			return
		}

		tweet, err := tweetService.Update(r.Context(), user.ID, tweetID, data.Content)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, newTweetResponse(tweet), "Tweet updated")
	})
}

func handleDeleteTweet(tweetService tweetService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		tweetID, ok := pathUUID(w, r, "tweetID")
		if !ok {
			return
		}

		err := tweetService.Delete(r.Context(), user.ID, tweetID)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		render.Success(w, http.StatusOK, struct{}{}, "Tweet deleted")
	})
}

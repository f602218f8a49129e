package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/handlers/render"
	"github.com/nkiryanov/videotube/internal/logger"
	"github.com/nkiryanov/videotube/internal/metrics"
	"github.com/nkiryanov/videotube/internal/models"
	"github.com/nkiryanov/videotube/internal/service/auth"
)

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func newTokensResponse(pair models.TokenPair) tokensResponse {
	return tokensResponse{AccessToken: pair.Access.Value, RefreshToken: pair.Refresh.Value}
}

func handleRegister(authService authService, events authEvents, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required,min=3,max=30,username"`
		Email    string `json:"email" validate:"required,email,max=254"`
		Fullname string `json:"fullName" validate:"required,max=100"`
		Password string `json:"password" validate:"required,min=8,max=128"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, err := authService.Register(r.Context(), auth.RegisterParams{
			Username: data.Username,
			Email:    data.Email,
			Fullname: data.Fullname,
			Password: data.Password,
		})
		if err != nil {
			events.AuthEvent(metrics.EventRegister, metrics.OutcomeFailure)
			serviceError(w, r, l, err)
			return
		}

		events.AuthEvent(metrics.EventRegister, metrics.OutcomeSuccess)
		render.Success(w, http.StatusCreated, newUserResponse(user), "User registered successfully")
	})
}

// Login by username or email
func handleLogin(authService authService, events authEvents, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required_without=Email"`
		Email    string `json:"email" validate:"required_without=Username"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		User userResponse `json:"user"`
		tokensResponse
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		login := data.Username
		if login == "" {
			login = data.Email
		}

		user, pair, err := authService.Login(r.Context(), login, data.Password)
		if err != nil {
			events.AuthEvent(metrics.EventLogin, metrics.OutcomeFailure)
			serviceError(w, r, l, err)
			return
		}

		events.AuthEvent(metrics.EventLogin, metrics.OutcomeSuccess)
		authService.SetTokenPairToResponse(w, pair)
		render.Success(w, http.StatusOK, response{
			User:           newUserResponse(user),
			tokensResponse: newTokensResponse(pair),
		}, "User logged in successfully")
	})
}

// Exchange refresh token from cookie or body for a new pair
func handleTokenRefresh(authService authService, events authEvents, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := authService.GetRefreshString(r)
		if err != nil {
			events.AuthEvent(metrics.EventRefresh, metrics.OutcomeFailure)
			serviceError(w, r, l, err)
			return
		}

		pair, err := authService.Refresh(r.Context(), refresh)
		if err != nil {
			// Token of removed user is as good as forged one
			if errors.Is(err, apperrors.ErrNotFound) {
				err = fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
			}
			events.AuthEvent(metrics.EventRefresh, metrics.OutcomeFailure)
			serviceError(w, r, l, err)
			return
		}

		events.AuthEvent(metrics.EventRefresh, metrics.OutcomeSuccess)
		authService.SetTokenPairToResponse(w, pair)
		render.Success(w, http.StatusOK, newTokensResponse(pair), "Access token refreshed")
	})
}

func handleLogout(authService authService, events authEvents, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		err := authService.Logout(r.Context(), user.ID)
		if err != nil {
			events.AuthEvent(metrics.EventLogout, metrics.OutcomeFailure)
			serviceError(w, r, l, err)
			return
		}

		events.AuthEvent(metrics.EventLogout, metrics.OutcomeSuccess)
		authService.ClearTokens(w)
		render.Success(w, http.StatusOK, struct{}{}, "User logged out")
	})
}

func handleChangePassword(authService authService, l logger.Logger) http.Handler {
	type request struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8,max=128,nefield=OldPassword"`
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

		err = authService.ChangePassword(r.Context(), user.ID, data.OldPassword, data.NewPassword)
		if err != nil {
			serviceError(w, r, l, err)
			return
		}

		// Refresh token is revoked, so are the cookies
		authService.ClearTokens(w)
		render.Success(w, http.StatusOK, struct{}{}, "Password changed successfully")
	})
}

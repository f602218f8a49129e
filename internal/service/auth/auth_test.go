package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/models"
	"github.com/nkiryanov/videotube/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/videotube/internal/testutil"
)

type testEnv struct {
	s       *AuthService
	tokens  *tokenmanager.TokenManager
	storage *testutil.MemStorage
}

func newTestEnv(t *testing.T, cfg tokenmanager.Config) testEnv {
	t.Helper()

	cfg.AccessSecret = "test-access-secret"
	cfg.RefreshSecret = "test-refresh-secret"
	tokens, err := tokenmanager.New(cfg)
	require.NoError(t, err, "token manager should be created without errors")

	storage := testutil.NewMemStorage()
	s, err := NewService(Config{}, tokens, storage.User())
	require.NoError(t, err, "auth service could't be started")

	return testEnv{s: s, tokens: tokens, storage: storage}
}

func (e testEnv) register(t *testing.T, username string, password string) uuid.UUID {
	t.Helper()

	user, err := e.s.Register(t.Context(), RegisterParams{
		Username: username,
		Email:    username + "@example.com",
		Fullname: "Test " + username,
		Password: password,
	})
	require.NoError(t, err)

	return user.ID
}

func Test_Auth(t *testing.T) {
	t.Parallel()

	t.Run("new auth service defaults", func(t *testing.T) {
		s, err := NewService(Config{}, nil, nil)
		require.NoError(t, err, "auth service should be created without errors")

		require.Equal(t, defaultAccessHeaderName, s.accessHeaderName, "default access header name should be set")
		require.Equal(t, defaultAccessAuthScheme, s.accessAuthScheme, "default access auth")
		require.Equal(t, defaultAccessCookieName, s.accessCookieName)
		require.Equal(t, defaultRefreshCookieName, s.refreshCookieName, "default refresh cookie name should be set")
		require.Equal(t, BcryptHasher{}, s.hasher, "default hasher should be set to BcryptHasher")
	})

	t.Run("Register", func(t *testing.T) {
		t.Run("new user ok", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{})

			user, err := e.s.Register(t.Context(), RegisterParams{
				Username: " Alice ", Email: "Alice@Example.com", Fullname: "Alice", Password: "pwd",
			})

			require.NoError(t, err, "registering new user should be ok")
			assert.Equal(t, "alice", user.Username, "username stored lower cased")
			assert.Equal(t, "alice@example.com", user.Email)
			assert.NotEqual(t, "pwd", user.HashedPassword, "password never stored as is")
			assert.Empty(t, user.RefreshTokenHash, "registration does not login")
		})

		t.Run("fail if user exists", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{})
			e.register(t, "alice", "pwd")

			_, err := e.s.Register(t.Context(), RegisterParams{Username: "ALICE", Email: "new@example.com", Password: "pwd"})

			require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("access token verifies to same user", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{})
			userID := e.register(t, "alice", "pwd")

			for _, login := range []string{"alice", "alice@example.com"} {
				user, pair, err := e.s.Login(t.Context(), login, "pwd")
				require.NoError(t, err)
				require.Equal(t, userID, user.ID)
				require.NotEmpty(t, pair.Access.Value, "access token should not be empty")
				require.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")

				got, err := e.s.VerifyAccess(pair.Access.Value)
				require.NoError(t, err)
				assert.Equal(t, userID, got)
			}
		})

		t.Run("stores refresh token digest only", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{})
			userID := e.register(t, "alice", "pwd")

			_, pair, err := e.s.Login(t.Context(), "alice", "pwd")
			require.NoError(t, err)

			user, err := e.storage.User().GetUserByID(t.Context(), userID)
			require.NoError(t, err)
			assert.Equal(t, refreshDigest(pair.Refresh.Value), user.RefreshTokenHash)
			assert.NotContains(t, user.RefreshTokenHash, pair.Refresh.Value)
		})

		t.Run("user not found", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{})
			e.register(t, "alice", "pwd")

			_, _, err := e.s.Login(t.Context(), "bob", "pwd")

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			require.ErrorIs(t, err, apperrors.ErrNotFound)
		})

		t.Run("wrong password", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{})
			e.register(t, "alice", "pwd")

			_, _, err := e.s.Login(t.Context(), "alice", "wrong")

			require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
			require.NotErrorIs(t, err, apperrors.ErrNotFound)
		})

		t.Run("second login revokes first refresh token", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{})
			e.register(t, "alice", "pwd")

			_, first, err := e.s.Login(t.Context(), "alice", "pwd")
			require.NoError(t, err)
			_, second, err := e.s.Login(t.Context(), "alice", "pwd")
			require.NoError(t, err)

			_, err = e.s.Refresh(t.Context(), first.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenStale)

			_, err = e.s.Refresh(t.Context(), second.Refresh.Value)
			require.NoError(t, err)
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("alice rotates refresh token", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{})
			userID := e.register(t, "alice", "pwd")

			_, pair1, err := e.s.Login(t.Context(), "alice", "pwd")
			require.NoError(t, err)

			pair2, err := e.s.Refresh(t.Context(), pair1.Refresh.Value)
			require.NoError(t, err)
			require.NotEqual(t, pair1.Access.Value, pair2.Access.Value, "new access token should be different")
			require.NotEqual(t, pair1.Refresh.Value, pair2.Refresh.Value, "new refresh token should be different")

			got, err := e.s.VerifyAccess(pair2.Access.Value)
			require.NoError(t, err)
			require.Equal(t, userID, got)

			// rt1 is rotated out
			_, err = e.s.Refresh(t.Context(), pair1.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenStale)
			require.ErrorIs(t, err, apperrors.ErrTokenExpired, "stale session is a kind of expired token")

			// Failed reuse does not break the valid session
			_, err = e.s.Refresh(t.Context(), pair2.Refresh.Value)
			require.NoError(t, err)
		})

		t.Run("expired token", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{RefreshTTL: time.Second})
			e.register(t, "alice", "pwd")
			_, pair, err := e.s.Login(t.Context(), "alice", "pwd")
			require.NoError(t, err)

			// Move time forward to make sure refresh token is expired
			time.Sleep(2 * time.Second)

			_, err = e.s.Refresh(t.Context(), pair.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrTokenExpired)
			require.NotErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("tampered token", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{})
			e.register(t, "alice", "pwd")
			_, pair, err := e.s.Login(t.Context(), "alice", "pwd")
			require.NoError(t, err)

			parts := strings.Split(pair.Refresh.Value, ".")
			require.Len(t, parts, 3)
			tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

			_, err = e.s.Refresh(t.Context(), tampered)
			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("access token can't refresh", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{})
			e.register(t, "alice", "pwd")
			_, pair, err := e.s.Login(t.Context(), "alice", "pwd")
			require.NoError(t, err)

			_, err = e.s.Refresh(t.Context(), pair.Access.Value)
			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("user not exists", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{})
			pair, err := e.tokens.GeneratePair(uuid.New())
			require.NoError(t, err)

			_, err = e.s.Refresh(t.Context(), pair.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("refresh fails after logout", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{})
			userID := e.register(t, "alice", "pwd")
			_, pair, err := e.s.Login(t.Context(), "alice", "pwd")
			require.NoError(t, err)

			err = e.s.Logout(t.Context(), userID)
			require.NoError(t, err)

			_, err = e.s.Refresh(t.Context(), pair.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenStale)
		})

		t.Run("idempotent", func(t *testing.T) {
			e := newTestEnv(t, tokenmanager.Config{})
			userID := e.register(t, "alice", "pwd")

			require.NoError(t, e.s.Logout(t.Context(), userID))
			require.NoError(t, e.s.Logout(t.Context(), userID))
		})
	})

	t.Run("VerifyAccess", func(t *testing.T) {
		e := newTestEnv(t, tokenmanager.Config{})
		pair, err := e.tokens.GeneratePair(uuid.New())
		require.NoError(t, err)

		for _, token := range []string{"", "garbage", pair.Refresh.Value} {
			_, err := e.s.VerifyAccess(token)

			require.ErrorIs(t, err, apperrors.ErrUnauthorized, "token %q", token)
			require.ErrorIs(t, err, apperrors.ErrTokenInvalid, "cause is kept")
		}
	})

	t.Run("Auth", func(t *testing.T) {
		e := newTestEnv(t, tokenmanager.Config{})
		userID := e.register(t, "alice", "pwd")
		_, pair, err := e.s.Login(t.Context(), "alice", "pwd")
		require.NoError(t, err)

		t.Run("bearer header", func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Bearer "+pair.Access.Value)

			user, err := e.s.Auth(t.Context(), r)

			require.NoError(t, err)
			assert.Equal(t, userID, user.ID)
		})

		t.Run("cookie", func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.AddCookie(&http.Cookie{Name: "accessToken", Value: pair.Access.Value})

			user, err := e.s.Auth(t.Context(), r)

			require.NoError(t, err)
			assert.Equal(t, userID, user.ID)
		})

		t.Run("no token", func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			_, err := e.s.Auth(t.Context(), r)

			require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		})

		t.Run("user gone", func(t *testing.T) {
			other, err := e.tokens.GeneratePair(uuid.New())
			require.NoError(t, err)
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Bearer "+other.Access.Value)

			_, err = e.s.Auth(t.Context(), r)

			require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		})
	})

	t.Run("ChangePassword", func(t *testing.T) {
		e := newTestEnv(t, tokenmanager.Config{})
		userID := e.register(t, "alice", "pwd")
		_, pair, err := e.s.Login(t.Context(), "alice", "pwd")
		require.NoError(t, err)

		err = e.s.ChangePassword(t.Context(), userID, "wrong", "new-pwd")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

		err = e.s.ChangePassword(t.Context(), userID, "pwd", "new-pwd")
		require.NoError(t, err)

		_, err = e.s.Refresh(t.Context(), pair.Refresh.Value)
		require.ErrorIs(t, err, apperrors.ErrRefreshTokenStale, "session revoked")

		_, _, err = e.s.Login(t.Context(), "alice", "pwd")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		_, _, err = e.s.Login(t.Context(), "alice", "new-pwd")
		require.NoError(t, err)
	})
}

func Test_AuthTransport(t *testing.T) {
	t.Parallel()

	s, err := NewService(Config{SecureCookies: true}, nil, nil)
	require.NoError(t, err)

	t.Run("set token pair", func(t *testing.T) {
		w := httptest.NewRecorder()
		pair := newPair("access-value", "refresh-value")

		s.SetTokenPairToResponse(w, pair)

		assert.Equal(t, "Bearer access-value", w.Header().Get("Authorization"))
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)
		for _, c := range cookies {
			assert.True(t, c.HttpOnly, "cookie %s must be http only", c.Name)
			assert.True(t, c.Secure)
		}
		assert.Equal(t, "accessToken", cookies[0].Name)
		assert.Equal(t, "access-value", cookies[0].Value)
		assert.Equal(t, "refreshToken", cookies[1].Name)
		assert.Equal(t, "refresh-value", cookies[1].Value)
	})

	t.Run("clear tokens", func(t *testing.T) {
		w := httptest.NewRecorder()

		s.ClearTokens(w)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)
		for _, c := range cookies {
			assert.Empty(t, c.Value)
			assert.Equal(t, -1, c.MaxAge)
		}
	})

	t.Run("refresh from cookie first", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"refreshToken":"from-body"}`))
		r.AddCookie(&http.Cookie{Name: "refreshToken", Value: "from-cookie"})

		got, err := s.GetRefreshString(r)

		require.NoError(t, err)
		assert.Equal(t, "from-cookie", got)
	})

	t.Run("refresh from body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"refreshToken":"from-body"}`))

		got, err := s.GetRefreshString(r)

		require.NoError(t, err)
		assert.Equal(t, "from-body", got)
	})

	t.Run("refresh missing", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not json`))

		_, err := s.GetRefreshString(r)

		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func newPair(access string, refresh string) models.TokenPair {
	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: time.Now().Add(time.Minute)},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: time.Now().Add(time.Hour)},
	}
}

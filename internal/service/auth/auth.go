package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/models"
	"github.com/nkiryanov/videotube/internal/repository"
	"github.com/nkiryanov/videotube/internal/service/auth/tokenmanager"
)

const (
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultAccessCookieName  = "accessToken"
	defaultRefreshCookieName = "refreshToken"

	// Refresh token may be sent in JSON body as {"refreshToken": "..."}
	maxRefreshBodySize = 4 << 10
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type TokenManager interface {
	GeneratePair(userID uuid.UUID) (models.TokenPair, error)
	Verify(token string, kind tokenmanager.Kind) (models.TokenClaims, error)
}

type Config struct {
	// Hasher to use during user registration or login process
	// BcryptHasher if not set
	Hasher PasswordHasher

	// Where access token is set to response and searched in request
	AccessHeaderName string
	AccessAuthScheme string
	AccessCookieName string

	RefreshCookieName string

	// Mark cookies secure, required for production
	SecureCookies bool
}

// Session manager: login, refresh token rotation, logout and access token verification
type AuthService struct {
	// Manager to issue and verify token pairs (access and refresh)
	tokens TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Credential store
	users repository.UserRepo

	accessHeaderName  string
	accessAuthScheme  string
	accessCookieName  string
	refreshCookieName string
	secureCookies     bool
}

func NewService(cfg Config, tokens TokenManager, users repository.UserRepo) (*AuthService, error) {
	setDefault := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefault(&cfg.AccessHeaderName, defaultAccessHeaderName)
	setDefault(&cfg.AccessAuthScheme, defaultAccessAuthScheme)
	setDefault(&cfg.AccessCookieName, defaultAccessCookieName)
	setDefault(&cfg.RefreshCookieName, defaultRefreshCookieName)

	// Set default bcrypt hasher if not provided by user
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	return &AuthService{
		tokens:            tokens,
		hasher:            hasher,
		users:             users,
		accessHeaderName:  cfg.AccessHeaderName,
		accessAuthScheme:  cfg.AccessAuthScheme,
		accessCookieName:  cfg.AccessCookieName,
		refreshCookieName: cfg.RefreshCookieName,
		secureCookies:     cfg.SecureCookies,
	}, nil
}

type RegisterParams struct {
	Username string
	Email    string
	Fullname string
	Password string
}

// Register new user. User has to login afterwards to get tokens
// Returns apperrors.ErrUserAlreadyExists if username or email is taken
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (models.User, error) {
	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	return s.users.CreateUser(ctx, models.CreateUserParams{
		Username:       strings.ToLower(strings.TrimSpace(params.Username)),
		Email:          strings.ToLower(strings.TrimSpace(params.Email)),
		Fullname:       strings.TrimSpace(params.Fullname),
		HashedPassword: hash,
	})
}

// Login by username or email
// Any previously issued refresh token stops working
func (s *AuthService) Login(ctx context.Context, login string, password string) (models.User, models.TokenPair, error) {
	user, err := s.users.GetUserByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	err = s.hasher.Compare(user.HashedPassword, password)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidCredentials, err)
	}

	pair, err := s.tokens.GeneratePair(user.ID)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	err = s.users.SetRefreshToken(ctx, user.ID, refreshDigest(pair.Refresh.Value))
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	return user, pair, nil
}

// Exchange refresh token for new token pair. Presented token becomes invalid
func (s *AuthService) Refresh(ctx context.Context, presented string) (models.TokenPair, error) {
	claims, err := s.tokens.Verify(presented, tokenmanager.KindRefresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	// Token is signed by us but it was rotated out or revoked at logout
	presentedDigest := refreshDigest(presented)
	if subtle.ConstantTimeCompare([]byte(presentedDigest), []byte(user.RefreshTokenHash)) != 1 {
		return models.TokenPair{}, apperrors.ErrRefreshTokenStale
	}

	pair, err := s.tokens.GeneratePair(user.ID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	// Concurrent refresh with the same token loses here
	err = s.users.RotateRefreshToken(ctx, user.ID, presentedDigest, refreshDigest(pair.Refresh.Value))
	if err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Revoke refresh token of the user. Safe to call many times
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.users.SetRefreshToken(ctx, userID, "")
}

// Verify access token and return user id it was issued for
// Any failure is apperrors.ErrUnauthorized with the cause kept
func (s *AuthService) VerifyAccess(token string) (uuid.UUID, error) {
	claims, err := s.tokens.Verify(token, tokenmanager.KindAccess)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}

	return claims.UserID, nil
}

// Authenticate request by access token in header or cookie
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	token := s.accessFromRequest(r)
	if token == "" {
		return models.User{}, fmt.Errorf("%w: access token not provided", apperrors.ErrUnauthorized)
	}

	userID, err := s.VerifyAccess(token)
	if err != nil {
		return models.User{}, err
	}

	// Token may outlive the user
	user, err := s.users.GetUserByID(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	case err != nil:
		return models.User{}, err
	}

	return user, nil
}

// Change password and revoke refresh token, so user has to login again
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	err = s.hasher.Compare(user.HashedPassword, oldPassword)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidCredentials, err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	err = s.users.UpdatePassword(ctx, userID, hash)
	if err != nil {
		return err
	}

	return s.users.SetRefreshToken(ctx, userID, "")
}

// Set access token to header and both tokens to http only cookies
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	http.SetCookie(w, s.cookie(s.accessCookieName, pair.Access.Value, pair.Access.ExpiresAt))
	http.SetCookie(w, s.cookie(s.refreshCookieName, pair.Refresh.Value, pair.Refresh.ExpiresAt))
}

// Remove token cookies from client
func (s *AuthService) ClearTokens(w http.ResponseWriter) {
	for _, name := range []string{s.accessCookieName, s.refreshCookieName} {
		c := s.cookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

// Get refresh token from cookie or from JSON body
func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	if c, err := r.Cookie(s.refreshCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(io.LimitReader(r.Body, maxRefreshBodySize)).Decode(&body)
	}
	if body.RefreshToken == "" {
		return "", fmt.Errorf("%w: refresh token not provided", apperrors.ErrUnauthorized)
	}

	return body.RefreshToken, nil
}

func (s *AuthService) accessFromRequest(r *http.Request) string {
	header := r.Header.Get(s.accessHeaderName)
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, s.accessAuthScheme) {
		return strings.TrimSpace(token)
	}

	if c, err := r.Cookie(s.accessCookieName); err == nil {
		return c.Value
	}

	return ""
}

func (s *AuthService) cookie(name string, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// Only digest of refresh token is persisted
func refreshDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

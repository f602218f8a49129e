package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/videotube/internal/apperrors"
	"github.com/nkiryanov/videotube/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 10 * 24 * time.Hour
)

// Kind of token. Access and refresh tokens are signed with different secrets
// and the kind is also part of claims so one can't be used in place of the other
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
	Kind   Kind      `json:"knd"`
}

// Token manager with sensible default
type Config struct {
	// Secret keys to sign access and refresh tokens
	// Both required and must differ
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Stateless issuer and verifier of JWT tokens
type TokenManager struct {
	accessKey  []byte
	refreshKey []byte

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	switch {
	case cfg.AccessSecret == "" || cfg.RefreshSecret == "":
		return nil, errors.New("access and refresh secrets must not be empty")
	case cfg.AccessSecret == cfg.RefreshSecret:
		return nil, errors.New("access and refresh secrets must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg, ok := jwt.GetSigningMethod(cfg.Alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing method %q, only HMAC ones allowed", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

func (m *TokenManager) IssueAccess(userID uuid.UUID) (models.IssuedToken, error) {
	return m.issue(userID, KindAccess)
}

func (m *TokenManager) IssueRefresh(userID uuid.UUID) (models.IssuedToken, error) {
	return m.issue(userID, KindRefresh)
}

func (m *TokenManager) GeneratePair(userID uuid.UUID) (models.TokenPair, error) {
	var pair models.TokenPair

	access, err := m.IssueAccess(userID)
	if err != nil {
		return pair, err
	}

	refresh, err := m.IssueRefresh(userID)
	if err != nil {
		return pair, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Parse and validate token of the given kind
// Returns apperrors.ErrTokenExpired if token is expired and apperrors.ErrTokenInvalid on any other failure
func (m *TokenManager) Verify(token string, kind Kind) (models.TokenClaims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.key(kind), nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.TokenClaims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	case err != nil:
		return models.TokenClaims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	case claims.Kind != kind:
		return models.TokenClaims{}, fmt.Errorf("%w: expected %s token, got %q", apperrors.ErrTokenInvalid, kind, claims.Kind)
	case claims.UserID == uuid.Nil:
		return models.TokenClaims{}, fmt.Errorf("%w: token has no user", apperrors.ErrTokenInvalid)
	}

	return models.TokenClaims{UserID: claims.UserID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (m *TokenManager) issue(userID uuid.UUID, kind Kind) (models.IssuedToken, error) {
	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(m.ttl(kind))

	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID: userID,
			Kind:   kind,
		},
	)

	value, err := token.SignedString(m.key(kind))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing %s token. Err: %w", kind, err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

func (m *TokenManager) key(kind Kind) []byte {
	if kind == KindRefresh {
		return m.refreshKey
	}
	return m.accessKey
}

func (m *TokenManager) ttl(kind Kind) time.Duration {
	if kind == KindRefresh {
		return m.refreshTTL
	}
	return m.accessTTL
}

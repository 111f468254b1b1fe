// Package token issues and verifies the signed credential pairs used by the
// auth service: short-lived access tokens and longer-lived refresh tokens,
// both HS256 JWTs carrying a kind tag so one can never stand in for the
// other.
//
// Known limitation: access tokens have no server-side revocation. Once
// issued they stay valid until natural expiry; only refresh tokens are
// tracked (and revocable) through the per-user session list.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/chetan-01-source/Crowdera-ecommerce/internal/domain"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// Kind distinguishes access from refresh payloads
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

const bearerPrefix = "Bearer "

// Claims is the only claims shape this service signs or accepts
type Claims struct {
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	Kind   Kind        `json:"tokenType"`
	jwt.RegisteredClaims
}

// Config holds the signing parameters. Secret is fixed for the process
// lifetime; the manager never mutates it.
type Config struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

// Manager signs and verifies token pairs
type Manager struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	issuer          string
}

// NewManager creates a Manager. The secret is required; TTLs default to
// 72h access / 168h refresh when unset.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token: signing secret is required")
	}
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = 72 * time.Hour
	}
	if cfg.RefreshTokenTTL == 0 {
		cfg.RefreshTokenTTL = 168 * time.Hour
	}
	return &Manager{
		secret:          []byte(cfg.Secret),
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		issuer:          cfg.Issuer,
	}, nil
}

// IssuePair builds and signs an access/refresh pair with identical subject
// fields. The refresh token carries a random jti so two pairs issued for
// the same user in the same second are still distinct.
func (m *Manager) IssuePair(userID, email string, role domain.Role) (*domain.TokenPair, error) {
	now := time.Now()

	access, err := m.sign(Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Kind:   KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenTTL)),
		},
	})
	if err != nil {
		return nil, err
	}

	refresh, err := m.sign(Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Kind:   KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTokenTTL)),
		},
	})
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *Manager) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Decode verifies signature and expiry and checks the embedded kind tag.
// A structurally valid token of the wrong kind fails with
// ErrWrongTokenKind, not a generic failure: an access token must never be
// exchangeable for a refresh token or vice versa.
func (m *Manager) Decode(tokenString string, expected Kind) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Kind != expected {
		return nil, ErrWrongTokenKind
	}

	return claims, nil
}

// FromAuthHeader extracts the credential from an Authorization header.
// Only the "Bearer <token>" form is recognized; any other shape reports
// absence, leaving the caller to decide what a missing credential means.
func FromAuthHeader(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	tok := header[len(bearerPrefix):]
	if tok == "" {
		return "", false
	}
	return tok, true
}

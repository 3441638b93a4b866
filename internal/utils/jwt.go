package utils // package utils provides helpers for password hashing and token issuing

import (
	"crypto/sha256" // SHA-256 digest used as the refresh token storage key
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

// ErrInvalidToken is returned for any token that fails signature, expiry
// or claim checks. Callers never learn which check failed.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken is a signed refresh JWT. ID is the `jti` claim and is also
// the primary key of the persisted record.
type RefreshToken struct {
	Token string
	ID    string
	Exp   time.Time
}

// AccessClaims is what a verified access token resolves to.
type AccessClaims struct {
	UserID string
	Email  string
}

// RefreshClaims is what a verified refresh token resolves to.
type RefreshClaims struct {
	UserID  string
	TokenID string
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies both token classes, each with its own
// secret.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenService returns a TokenService. Both secrets must be at least
// 16 bytes and must differ.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(accessSecret) < 16 || len(refreshSecret) < 16 {
		return nil, errors.New("jwt secrets must be at least 16 characters")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock returns a copy of s that reads the current time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	c := *s
	c.now = now
	return &c
}

// RefreshTTL reports how long issued refresh tokens stay valid.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccessToken builds and signs an HS256 JWT carrying the subject and
// email claims.
func (s *TokenService) IssueAccessToken(userID, email string) (AccessToken, error) {
	now := s.now()
	exp := now.Add(s.accessTTL)
	claims := accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign access token: %w", err)
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// IssueRefreshToken signs a refresh JWT with the subject and a unique
// token id (`jti`).
func (s *TokenService) IssueRefreshToken(userID, tokenID string) (RefreshToken, error) {
	now := s.now()
	exp := now.Add(s.refreshTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        tokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return RefreshToken{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return RefreshToken{Token: signed, ID: tokenID, Exp: exp}, nil
}

// VerifyAccessToken checks signature and expiry and returns the subject
// and email claims.
func (s *TokenService) VerifyAccessToken(raw string) (AccessClaims, error) {
	var claims accessClaims
	if err := s.parse(raw, &claims, s.accessSecret); err != nil {
		return AccessClaims{}, err
	}
	if claims.Subject == "" {
		return AccessClaims{}, ErrInvalidToken
	}
	return AccessClaims{UserID: claims.Subject, Email: claims.Email}, nil
}

// VerifyRefreshToken checks signature and expiry and returns the subject
// and token id.
func (s *TokenService) VerifyRefreshToken(raw string) (RefreshClaims, error) {
	var claims jwt.RegisteredClaims
	if err := s.parse(raw, &claims, s.refreshSecret); err != nil {
		return RefreshClaims{}, err
	}
	if claims.Subject == "" || claims.ID == "" {
		return RefreshClaims{}, ErrInvalidToken
	}
	return RefreshClaims{UserID: claims.Subject, TokenID: claims.ID}, nil
}

func (s *TokenService) parse(raw string, claims jwt.Claims, secret []byte) error {
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		// only HMAC is accepted
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return ErrInvalidToken
	}
	return nil
}

// HashToken returns the SHA-256 hash of a signed token as a hex string.
// Storing only the hash prevents a leaked table from being replayed.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

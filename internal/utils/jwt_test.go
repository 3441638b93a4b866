package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret-0123456789"
	testRefreshSecret = "refresh-secret-0123456789"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return s
}

func TestNewTokenService_RejectsWeakOrSharedSecrets(t *testing.T) {
	_, err := NewTokenService("short", testRefreshSecret, time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(testAccessSecret, testAccessSecret, time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	s := newTestTokenService(t)

	tok, err := s.IssueAccessToken("user-1", "a@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	claims, err := s.VerifyAccessToken(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	s := newTestTokenService(t)

	tok, err := s.IssueRefreshToken("user-1", "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "jti-1", tok.ID)

	claims, err := s.VerifyRefreshToken(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "jti-1", claims.TokenID)
}

func TestTokenClassesAreNotInterchangeable(t *testing.T) {
	s := newTestTokenService(t)

	access, err := s.IssueAccessToken("user-1", "a@example.com")
	require.NoError(t, err)
	refresh, err := s.IssueRefreshToken("user-1", "jti-1")
	require.NoError(t, err)

	_, err = s.VerifyRefreshToken(access.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = s.VerifyAccessToken(refresh.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	s := newTestTokenService(t)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }

	tok, err := s.IssueAccessToken("user-1", "a@example.com")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().UTC() }
	_, err = s.VerifyAccessToken(tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	s := newTestTokenService(t)

	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.VerifyAccessToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	s := newTestTokenService(t)
	_, err := s.VerifyAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

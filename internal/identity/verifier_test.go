package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id":      "u1",
		"display_name": "Ann Agent",
		"exp":          time.Now().Add(time.Hour).Unix(),
	})

	id, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "u1", id.UserID)
	require.Equal(t, "Ann Agent", id.DisplayName)
}

func TestVerifyFallsBackToSubject(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "u2",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	id, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "u2", id.UserID)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	_, err := verifier.Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)
	token := signToken(t, "other-secret", jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	_, err := verifier.Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "u1"})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), unsigned)
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyRejectsMissingIdentity(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := verifier.Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyHonorsContextDeadline(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	_, err := verifier.Verify(ctx, token)
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyRejectsEmptyCredential(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)
	_, err := verifier.Verify(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidCredential)
}

package identity

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCredential is returned for any token the verifier rejects.
var ErrInvalidCredential = errors.New("invalid credential")

// Identity is the verified result of a handshake credential.
type Identity struct {
	UserID      string
	DisplayName string
}

// Verifier checks a bearer credential presented at connection time.
// Implementations must honor the context deadline; a timeout is an
// authentication failure like any other.
type Verifier interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}

type claims struct {
	jwt.RegisteredClaims
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// JWTVerifier validates HS256 tokens issued by the marketplace auth service.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier constructs a verifier from the shared signing secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token and extracts the user identity.
func (v *JWTVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, ErrInvalidCredential
	}
	if credential == "" {
		return Identity{}, ErrInvalidCredential
	}

	token, err := jwt.ParseWithClaims(credential, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredential
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, ErrInvalidCredential
	}

	parsed, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidCredential
	}

	userID := parsed.UserID
	if userID == "" {
		userID = parsed.Subject
	}
	if userID == "" {
		return Identity{}, ErrInvalidCredential
	}

	return Identity{UserID: userID, DisplayName: parsed.DisplayName}, nil
}

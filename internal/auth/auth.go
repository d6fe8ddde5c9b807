package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the caller as asserted by the auth provider's access token.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
}

// Authenticator validates access tokens issued by the external auth
// provider. GenerateToken mints compatible tokens for local tooling and tests.
type Authenticator interface {
	ValidateAccessToken(token string) (*Identity, error)
	GenerateToken(userID uuid.UUID, email string, ttl time.Duration) (string, error)
}

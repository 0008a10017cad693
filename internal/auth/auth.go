package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/campaign-portal/internal"
	"github.com/golang-jwt/jwt/v5"
)

const ProviderGoogle = "google"

// Identity is a signed-in user as reported by an Authenticator.
type Identity struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	AccessToken string   `json:"accessToken,omitempty"`
}

// Authenticator checks credentials against wherever users live.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignInWithProvider(ctx context.Context, provider, idToken string) (*Identity, error)
}

// Session is an issued session token and its expiry.
type Session struct {
	Identity  *Identity
	Token     string
	ExpiresAt time.Time
}

// Claims represents the session token claims
type Claims struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	AccessToken string   `json:"at,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() *internal.Principal {
	return &internal.Principal{
		ID:          c.Subject,
		Email:       c.Email,
		Name:        c.Name,
		Roles:       c.Roles,
		AccessToken: c.AccessToken,
	}
}

var (
	ErrInvalidCredentials  = internal.ErrInvalidCredentials
	ErrInvalidToken        = internal.ErrInvalidToken
	ErrTokenExpired        = internal.ErrTokenExpired
	ErrProviderUnsupported = internal.ErrProviderUnsupported
)

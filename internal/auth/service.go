package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/campaign-portal/internal"
)

// Service is the main auth service with dependencies
type Service struct {
	authenticator Authenticator
	sessions      *SessionManager
	logger        *slog.Logger
}

// NewService creates a new auth service
func NewService(authenticator Authenticator, sessions *SessionManager, logger *slog.Logger) *Service {
	return &Service{
		authenticator: authenticator,
		sessions:      sessions,
		logger:        logger,
	}
}

// Login validates credentials and issues a session
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	id, err := s.authenticator.SignIn(ctx, email, password)
	if err != nil {
		return nil, s.signInError(err, "password")
	}
	return s.sessions.Issue(id)
}

// LoginWithProvider exchanges a provider id token for a session
func (s *Service) LoginWithProvider(ctx context.Context, provider, idToken string) (*Session, error) {
	if idToken == "" {
		return nil, ErrInvalidCredentials
	}
	id, err := s.authenticator.SignInWithProvider(ctx, provider, idToken)
	if err != nil {
		return nil, s.signInError(err, provider)
	}
	return s.sessions.Issue(id)
}

// signInError keeps backend outages and unsupported providers, and reports
// every other failure as invalid credentials.
func (s *Service) signInError(err error, method string) error {
	if errors.Is(err, ErrProviderUnsupported) {
		return err
	}
	var appErr *internal.AppError
	if errors.As(err, &appErr) && (appErr.Type == internal.ErrorTypeExternal || appErr.Type == internal.ErrorTypeInternal) {
		s.logger.Error("sign-in backend failed", "method", method, "error", err)
		return err
	}
	s.logger.Warn("sign-in failed", "method", method, "error", err)
	return ErrInvalidCredentials
}

// Authenticate resolves a session token to the principal it carries
func (s *Service) Authenticate(token string) (*internal.Principal, error) {
	claims, err := s.sessions.Parse(token)
	if err != nil {
		return nil, err
	}
	return claims.Principal(), nil
}

func (s *Service) WriteSession(w http.ResponseWriter, sess *Session) {
	s.sessions.SetCookie(w, sess)
}

func (s *Service) ClearSession(w http.ResponseWriter) {
	s.sessions.ClearCookie(w)
}

// GenerateRandomToken generates a cryptographically secure random token
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

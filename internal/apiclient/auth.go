package apiclient

import (
	"context"
	"net/http"

	"github.com/frahmantamala/campaign-portal/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type providerLoginRequest struct {
	Provider      string `json:"provider"`
	ProviderToken string `json:"providerToken"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	User        struct {
		ID    string   `json:"id"`
		Email string   `json:"email"`
		Name  string   `json:"name"`
		Roles []string `json:"roles"`
	} `json:"user"`
}

func (l loginResponse) identity() *auth.Identity {
	roles := l.User.Roles
	if len(roles) == 0 {
		roles = auth.RolesFor("")
	}
	return &auth.Identity{
		ID:          l.User.ID,
		Email:       l.User.Email,
		Name:        l.User.Name,
		Roles:       roles,
		AccessToken: l.AccessToken,
	}
}

// Authenticator implements auth.Authenticator against the backend login endpoints.
type Authenticator struct {
	client *Client
}

func NewAuthenticator(client *Client) *Authenticator {
	return &Authenticator{client: client}
}

func (a *Authenticator) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	var resp loginResponse
	if err := a.client.sendJSON(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return resp.identity(), nil
}

func (a *Authenticator) SignInWithProvider(ctx context.Context, provider, idToken string) (*auth.Identity, error) {
	var resp loginResponse
	req := providerLoginRequest{Provider: provider, ProviderToken: idToken}
	if err := a.client.sendJSON(ctx, http.MethodPost, "/provider-login", req, &resp); err != nil {
		return nil, err
	}
	return resp.identity(), nil
}

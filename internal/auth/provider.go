// Package auth wraps the external OAuth provider the login flow
// delegates to. Only the code-for-token exchange and the profile fetch
// are modeled; everything else lives on the provider's side.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrAuthFailed = errors.New("authentication with provider failed")

// Identity is the provider's view of the logged-in user.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type Provider interface {
	// AuthURL builds the login redirect target for a given state value.
	AuthURL(state string) string
	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, code string) (accessToken string, expiresIn int, err error)
	// Profile fetches the identity behind an access token.
	Profile(ctx context.Context, accessToken string) (Identity, error)
}

type Config struct {
	AuthorizeURL string
	TokenURL     string
	ProfileURL   string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type HTTPProvider struct {
	cfg    Config
	client *http.Client
}

func NewHTTPProvider(cfg Config) *HTTPProvider {
	return &HTTPProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.cfg.ClientID)
	q.Set("redirect_uri", p.cfg.RedirectURL)
	q.Set("response_type", "code")
	q.Set("state", state)

	return p.cfg.AuthorizeURL + "?" + q.Encode()
}

func (p *HTTPProvider) Exchange(ctx context.Context, code string) (string, int, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("redirect_uri", p.cfg.RedirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("%w: token endpoint returned %d", ErrAuthFailed, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if body.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: empty access token", ErrAuthFailed)
	}
	return body.AccessToken, body.ExpiresIn, nil
}

func (p *HTTPProvider) Profile(ctx context.Context, accessToken string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.ProfileURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("%w: profile endpoint returned %d", ErrAuthFailed, resp.StatusCode)
	}

	var body struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		Name        string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	identity := Identity{ID: body.ID, DisplayName: body.DisplayName}
	if identity.DisplayName == "" {
		identity.DisplayName = body.Name
	}
	if identity.ID == "" {
		return Identity{}, fmt.Errorf("%w: profile has no id", ErrAuthFailed)
	}
	return identity, nil
}

package gdocs

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OAuthClient runs the web authorization-code flow for a teacher's Google account.
type OAuthClient struct {
	config *oauth2.Config
}

// NewOAuthClient parses a Google OAuth client JSON ("web" or "installed")
// or a path to one. redirectURL wins over the file's redirect_uris, which may
// be absent for a client downloaded before any redirect was registered.
func NewOAuthClient(clientJSON, redirectURL string) (*OAuthClient, error) {
	if strings.TrimSpace(clientJSON) == "" {
		return nil, ErrNoOAuthClient
	}
	data, err := LoadJSON(clientJSON)
	if err != nil {
		return nil, fmt.Errorf("loading oauth client: %w", err)
	}
	var file struct {
		Web       *oauthClientSecret `json:"web"`
		Installed *oauthClientSecret `json:"installed"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing oauth client: %w", err)
	}
	sec := file.Web
	if sec == nil {
		sec = file.Installed
	}
	if sec == nil || sec.ClientID == "" {
		return nil, fmt.Errorf("parsing oauth client: no web or installed client_id")
	}

	if redirectURL == "" && len(sec.RedirectURIs) > 0 {
		redirectURL = sec.RedirectURIs[0]
	}
	if redirectURL == "" {
		return nil, fmt.Errorf("parsing oauth client: no redirect URL")
	}
	endpoint := google.Endpoint
	if sec.AuthURI != "" {
		endpoint.AuthURL = sec.AuthURI
	}
	if sec.TokenURI != "" {
		endpoint.TokenURL = sec.TokenURI
	}
	return &OAuthClient{config: &oauth2.Config{
		ClientID:     sec.ClientID,
		ClientSecret: sec.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     endpoint,
	}}, nil
}

type oauthClientSecret struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURIs []string `json:"redirect_uris"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
}

// AuthURL returns the consent page URL. Offline access with forced consent
// makes Google return a refresh token every time.
func (c *OAuthClient) AuthURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for authorized_user credential JSON.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (json.RawMessage, error) {
	tok, err := c.config.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("exchanging oauth code: %w", err)
	}
	return json.Marshal(authorizedUser{
		Type:         TypeAuthorizedUser,
		ClientID:     c.config.ClientID,
		ClientSecret: c.config.ClientSecret,
		RefreshToken: tok.RefreshToken,
		Token:        tok.AccessToken,
		TokenURI:     c.config.Endpoint.TokenURL,
		Scopes:       c.config.Scopes,
		Expiry:       tok.Expiry,
	})
}

// NewState returns a random URL-safe OAuth state value.
func NewState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

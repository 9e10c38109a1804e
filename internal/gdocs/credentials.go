// Package gdocs uploads rendered lesson reports to Google Docs.
package gdocs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
)

// Scopes requested for every credential type.
var Scopes = []string{drive.DriveFileScope, docs.DocumentsScope}

// Credential payload types.
const (
	TypeAuthorizedUser = "authorized_user"
	TypeServiceAccount = "service_account"
)

// Credentials is a resolved credential payload.
type Credentials struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// authorizedUser is the credential JSON saved after the OAuth web flow.
type authorizedUser struct {
	Type         string    `json:"type,omitempty"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	RefreshToken string    `json:"refresh_token"`
	Token        string    `json:"token,omitempty"`
	TokenURI     string    `json:"token_uri,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// CredentialSource lists the places credentials may come from, most specific first.
type CredentialSource struct {
	Override           string // JSON pasted for a single upload
	Session            string // authorized_user JSON from this browser's OAuth callback
	UserJSON           string // configured authorized_user JSON or a path to it
	ServiceAccountJSON string // configured service account JSON or a path to it
}

// Resolve picks the first configured source.
func (s CredentialSource) Resolve() (Credentials, error) {
	if v := strings.TrimSpace(s.Override); v != "" {
		return parsePayload(v)
	}
	if v := strings.TrimSpace(s.Session); v != "" {
		return Credentials{Type: TypeAuthorizedUser, Data: json.RawMessage(v)}, nil
	}
	if v := strings.TrimSpace(s.UserJSON); v != "" {
		data, err := LoadJSON(v)
		if err != nil {
			return Credentials{}, fmt.Errorf("loading oauth user credentials: %w", err)
		}
		return Credentials{Type: TypeAuthorizedUser, Data: data}, nil
	}
	if v := strings.TrimSpace(s.ServiceAccountJSON); v != "" {
		data, err := LoadJSON(v)
		if err != nil {
			return Credentials{}, fmt.Errorf("loading service account credentials: %w", err)
		}
		return Credentials{Type: TypeServiceAccount, Data: data}, nil
	}
	return Credentials{}, ErrNoCredentials
}

// parsePayload accepts either a {"type": ..., "data": {...}} wrapper or a raw
// credential object. A raw object without a type is taken as authorized_user.
func parsePayload(raw string) (Credentials, error) {
	var probe struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return Credentials{}, fmt.Errorf("parsing credential json: %w", err)
	}
	if len(probe.Data) > 0 && string(probe.Data) != "null" {
		typ := probe.Type
		if typ == "" {
			typ = TypeAuthorizedUser
		}
		return Credentials{Type: typ, Data: probe.Data}, nil
	}
	typ := probe.Type
	if typ != TypeServiceAccount {
		typ = TypeAuthorizedUser
	}
	return Credentials{Type: typ, Data: json.RawMessage(raw)}, nil
}

// LoadJSON returns v when it is inline JSON, otherwise the contents of the file it names.
func LoadJSON(v string) (json.RawMessage, error) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "{") {
		if !json.Valid([]byte(v)) {
			return nil, fmt.Errorf("invalid json")
		}
		return json.RawMessage(v), nil
	}
	data, err := os.ReadFile(v)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid json in %s", v)
	}
	return data, nil
}

// TokenSource builds a refreshing token source for the credentials.
func (c Credentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	switch c.Type {
	case TypeServiceAccount:
		cfg, err := google.JWTConfigFromJSON(c.Data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("parsing service account: %w", err)
		}
		return cfg.TokenSource(ctx), nil

	case TypeAuthorizedUser, "":
		var u authorizedUser
		if err := json.Unmarshal(c.Data, &u); err != nil {
			return nil, fmt.Errorf("parsing authorized user: %w", err)
		}
		if u.RefreshToken == "" && u.Token == "" {
			return nil, fmt.Errorf("authorized user credentials have no token")
		}
		endpoint := google.Endpoint
		if u.TokenURI != "" {
			endpoint.TokenURL = u.TokenURI
		}
		cfg := &oauth2.Config{
			ClientID:     u.ClientID,
			ClientSecret: u.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       Scopes,
		}
		return cfg.TokenSource(ctx, &oauth2.Token{
			AccessToken:  u.Token,
			RefreshToken: u.RefreshToken,
			Expiry:       u.Expiry,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported credential type %q", c.Type)
	}
}

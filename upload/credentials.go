package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"tubeforge/models"
)

// Scopes requested for upload sessions: uploading, thumbnails and playlist
// management need the full youtube scope.
var Scopes = []string{
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/youtube",
}

// Credentials locate the OAuth2 material for a session.
type Credentials struct {
	ClientSecretsPath string // client_secret.json downloaded from the Google console
	TokenPath         string // cached user token, refreshed tokens are written back
}

// Validate checks that both paths are set.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ClientSecretsPath) == "" {
		missing = append(missing, "client secrets path")
	}
	if strings.TrimSpace(c.TokenPath) == "" {
		missing = append(missing, "token path")
	}
	if len(missing) > 0 {
		return models.NewError(models.ErrInvalidArgument, "credentials", fmt.Errorf("missing %s", strings.Join(missing, " and ")))
	}
	return nil
}

// OAuthConfig reads the client secrets file.
func (c Credentials) OAuthConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(c.ClientSecretsPath)
	if err != nil {
		return nil, models.NewError(models.ErrNotFound, "credentials", err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, models.NewError(models.ErrInvalidArgument, "credentials", fmt.Errorf("parse client secrets: %w", err))
	}
	return cfg, nil
}

// AuthCodeURL returns the consent URL the user visits to authorize the tool.
func (c Credentials) AuthCodeURL(state string) (string, error) {
	cfg, err := c.OAuthConfig()
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Exchange trades an authorization code for a token and saves it to TokenPath.
func (c Credentials) Exchange(ctx context.Context, code string) error {
	cfg, err := c.OAuthConfig()
	if err != nil {
		return err
	}
	tok, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return models.NewError(models.ErrRemoteRejected, "authorize", err)
	}
	return SaveToken(c.TokenPath, tok)
}

// HTTPClient returns a client that authorizes requests with the cached token
// and persists it whenever it is refreshed.
//
// Returns an error matching models.ErrNotFound if either file is missing.
func (c Credentials) HTTPClient(ctx context.Context) (*http.Client, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cfg, err := c.OAuthConfig()
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(c.TokenPath)
	if err != nil {
		return nil, err
	}
	src := &persistingSource{
		base: cfg.TokenSource(ctx, tok),
		path: c.TokenPath,
		last: tok.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// LoadToken reads a JSON encoded token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.NewError(models.ErrNotFound, "credentials", fmt.Errorf("no token at %s, authorize first: %w", path, err))
		}
		return nil, models.NewError(models.ErrNotFound, "credentials", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, models.NewError(models.ErrInvalidArgument, "credentials", fmt.Errorf("parse token: %w", err))
	}
	return &tok, nil
}

// SaveToken writes tok to path with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return os.Rename(tmp, path)
}

// persistingSource saves every newly issued token back to disk.
type persistingSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		// a failed write only costs a refresh on the next run
		_ = SaveToken(s.path, tok)
	}
	return tok, nil
}

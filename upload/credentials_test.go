package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"tubeforge/models"
)

func writeClientSecrets(t *testing.T, tokenURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client_secret.json")
	data := fmt.Sprintf(`{"installed":{
		"client_id":"tf.apps.googleusercontent.com",
		"client_secret":"shh",
		"redirect_uris":["http://localhost"],
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":%q}}`, tokenURL)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func tokenServer(t *testing.T, accessToken string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"access_token":%q,"token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`, accessToken)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCredentials_Validate(t *testing.T) {
	assert.NoError(t, Credentials{ClientSecretsPath: "a", TokenPath: "b"}.Validate())

	err := Credentials{}.Validate()
	require.ErrorIs(t, err, models.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "client secrets path and token path")
}

func TestCredentials_OAuthConfig(t *testing.T) {
	creds := Credentials{ClientSecretsPath: writeClientSecrets(t, "https://oauth2.googleapis.com/token")}

	cfg, err := creds.OAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, "tf.apps.googleusercontent.com", cfg.ClientID)
	assert.Equal(t, Scopes, cfg.Scopes)

	_, err = Credentials{ClientSecretsPath: "/nonexistent/client_secret.json"}.OAuthConfig()
	assert.ErrorIs(t, err, models.ErrNotFound)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{}"), 0o600))
	_, err = Credentials{ClientSecretsPath: bad}.OAuthConfig()
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestCredentials_AuthCodeURL(t *testing.T) {
	creds := Credentials{ClientSecretsPath: writeClientSecrets(t, "https://oauth2.googleapis.com/token")}

	raw, err := creds.AuthCodeURL("state-1")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "tf.apps.googleusercontent.com", q.Get("client_id"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
}

func TestCredentials_Exchange(t *testing.T) {
	srv := tokenServer(t, "fresh")
	creds := Credentials{
		ClientSecretsPath: writeClientSecrets(t, srv.URL),
		TokenPath:         filepath.Join(t.TempDir(), "tokens", "token.json"),
	}

	require.NoError(t, creds.Exchange(context.Background(), " code \n"))

	tok, err := LoadToken(creds.TokenPath)
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, "refresh", tok.RefreshToken)

	info, err := os.Stat(creds.TokenPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadToken_Missing(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "token.json"))
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Contains(t, err.Error(), "authorize first")
}

func TestLoadToken_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := LoadToken(path)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestCredentials_HTTPClientRefreshesAndPersists(t *testing.T) {
	srv := tokenServer(t, "refreshed")
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, SaveToken(tokenPath, &oauth2.Token{
		AccessToken:  "stale",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, "ok")
	}))
	t.Cleanup(api.Close)

	creds := Credentials{ClientSecretsPath: writeClientSecrets(t, srv.URL), TokenPath: tokenPath}
	client, err := creds.HTTPClient(context.Background())
	require.NoError(t, err)

	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer refreshed", gotAuth)
	tok, err := LoadToken(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "refreshed", tok.AccessToken)
}

func TestCredentials_HTTPClientWithoutToken(t *testing.T) {
	creds := Credentials{
		ClientSecretsPath: writeClientSecrets(t, "https://oauth2.googleapis.com/token"),
		TokenPath:         filepath.Join(t.TempDir(), "token.json"),
	}

	_, err := creds.HTTPClient(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

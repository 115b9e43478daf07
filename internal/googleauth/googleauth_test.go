package googleauth

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/assistant-labs/personal_assistant/internal/config"
	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

const testCredentials = `{
  "installed": {
    "client_id": "client-id.apps.googleusercontent.com",
    "client_secret": "client-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func testLogger() logger.Logger {
	return logger.New(logger.Config{Level: logger.ErrorLevel, Format: "json", Service: "test"})
}

func writeCredentials(t *testing.T) (credFile, tokenFile string) {
	t.Helper()
	dir := t.TempDir()
	credFile = filepath.Join(dir, "credentials.json")
	tokenFile = filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(credFile, []byte(testCredentials), 0o600))
	return credFile, tokenFile
}

func TestNew(t *testing.T) {
	credFile, tokenFile := writeCredentials(t)

	mgr, err := New(config.GoogleConfig{
		CredentialsFile: credFile,
		TokenFile:       tokenFile,
		Scopes:          []string{"https://www.googleapis.com/auth/calendar"},
	}, testLogger())
	require.NoError(t, err)
	assert.NotNil(t, mgr)
}

func TestNewMissingCredentialsFile(t *testing.T) {
	_, err := New(config.GoogleConfig{
		CredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
	}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read google credentials file")
}

func TestClientWithoutToken(t *testing.T) {
	credFile, tokenFile := writeCredentials(t)

	mgr, err := New(config.GoogleConfig{
		CredentialsFile: credFile,
		TokenFile:       tokenFile,
		Scopes:          []string{"https://www.googleapis.com/auth/calendar"},
	}, testLogger())
	require.NoError(t, err)

	_, err = mgr.Client(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run with -authorize")
}

func TestTokenRoundTrip(t *testing.T) {
	credFile, tokenFile := writeCredentials(t)

	mgr, err := New(config.GoogleConfig{
		CredentialsFile: credFile,
		TokenFile:       tokenFile,
	}, testLogger())
	require.NoError(t, err)

	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	}
	require.NoError(t, mgr.saveToken(token))

	loaded, err := mgr.loadToken()
	require.NoError(t, err)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)

	// Token file must not be world readable.
	info, err := os.Stat(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

// rotatingSource hands out a fresh access token on every call, forcing
// the persist path each time.
type rotatingSource struct {
	mu sync.Mutex
	n  int
}

func (s *rotatingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return &oauth2.Token{
		AccessToken: fmt.Sprintf("token-%d", s.n),
		Expiry:      time.Now().Add(time.Hour),
	}, nil
}

func TestTokenSourceConcurrentRefresh(t *testing.T) {
	credFile, tokenFile := writeCredentials(t)

	mgr, err := New(config.GoogleConfig{
		CredentialsFile: credFile,
		TokenFile:       tokenFile,
	}, testLogger())
	require.NoError(t, err)

	src := &persistingTokenSource{mgr: mgr, src: &rotatingSource{}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				token, err := src.Token()
				assert.NoError(t, err)
				assert.NotEmpty(t, token.AccessToken)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "token-")
}

func TestLoadTokenRejectsGarbage(t *testing.T) {
	credFile, tokenFile := writeCredentials(t)
	require.NoError(t, os.WriteFile(tokenFile, []byte("{not json"), 0o600))

	mgr, err := New(config.GoogleConfig{
		CredentialsFile: credFile,
		TokenFile:       tokenFile,
	}, testLogger())
	require.NoError(t, err)

	_, err = mgr.loadToken()
	require.Error(t, err)
}

func TestAuthorizeConsoleFlow(t *testing.T) {
	credFile, tokenFile := writeCredentials(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "verification-code", r.FormValue("code"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"granted","refresh_token":"keep","token_type":"Bearer","expires_in":3600}`)
	}))
	defer ts.Close()

	mgr, err := New(config.GoogleConfig{
		CredentialsFile: credFile,
		TokenFile:       tokenFile,
	}, testLogger())
	require.NoError(t, err)
	mgr.oauthCfg.Endpoint.TokenURL = ts.URL

	var out bytes.Buffer
	in := strings.NewReader("verification-code\n")
	require.NoError(t, mgr.Authorize(t.Context(), in, &out))
	assert.Contains(t, out.String(), "Open the following URL")

	token, err := mgr.loadToken()
	require.NoError(t, err)
	assert.Equal(t, "granted", token.AccessToken)
	assert.Equal(t, "keep", token.RefreshToken)
}

func TestAuthorizeEmptyCode(t *testing.T) {
	credFile, tokenFile := writeCredentials(t)

	mgr, err := New(config.GoogleConfig{
		CredentialsFile: credFile,
		TokenFile:       tokenFile,
	}, testLogger())
	require.NoError(t, err)

	var out bytes.Buffer
	err = mgr.Authorize(t.Context(), strings.NewReader("\n"), &out)
	require.Error(t, err)
}

func TestTrimNewline(t *testing.T) {
	assert.Equal(t, "abc", trimNewline("abc\r\n"))
	assert.Equal(t, "abc", trimNewline("abc\n"))
	assert.Equal(t, "abc", trimNewline("abc"))
	assert.Equal(t, "", trimNewline("\n"))
}

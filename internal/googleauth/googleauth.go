// Package googleauth manages OAuth2 credentials for the Google Workspace
// tools. Credentials come from a client secrets file and a cached token
// file; the token is obtained once through a console authorization flow
// and refreshed automatically afterwards.
package googleauth

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/assistant-labs/personal_assistant/internal/config"
	"github.com/assistant-labs/personal_assistant/pkg/logger"
)

// Manager builds authenticated HTTP clients for the Google APIs.
type Manager struct {
	oauthCfg  *oauth2.Config
	tokenFile string
	log       logger.Logger

	mu sync.Mutex // guards token file writes
}

// New reads the client secrets file and prepares a Manager. It does not
// require a token yet; Client fails later if none has been authorized.
func New(cfg config.GoogleConfig, log logger.Logger) (*Manager, error) {
	data, err := os.ReadFile(cfg.CredentialsFile) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials file: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(data, cfg.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials file: %w", err)
	}

	return &Manager{
		oauthCfg:  oauthCfg,
		tokenFile: cfg.TokenFile,
		log:       log,
	}, nil
}

// Client returns an HTTP client that attaches and refreshes the stored
// token. Refreshed tokens are written back to the token file.
func (m *Manager) Client(ctx context.Context) (*http.Client, error) {
	token, err := m.loadToken()
	if err != nil {
		return nil, fmt.Errorf("google token not available, run with -authorize first: %w", err)
	}

	src := &persistingTokenSource{
		mgr:  m,
		src:  m.oauthCfg.TokenSource(ctx, token),
		last: token,
	}
	return oauth2.NewClient(ctx, src), nil
}

// Authorize runs the console authorization flow: it prints the consent
// URL, reads the verification code from in, exchanges it and stores the
// resulting token.
func (m *Manager) Authorize(ctx context.Context, in io.Reader, out io.Writer) error {
	url := m.oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open the following URL in your browser and paste the authorization code:\n%s\n\nCode: ", url)

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && code == "" {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}
	code = trimNewline(code)
	if code == "" {
		return fmt.Errorf("empty authorization code")
	}

	token, err := m.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := m.saveToken(token); err != nil {
		return err
	}

	m.log.Info("Google authorization complete",
		logger.StringField("token_file", m.tokenFile))
	return nil
}

func (m *Manager) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(m.tokenFile) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return token, nil
}

func (m *Manager) saveToken(token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(m.tokenFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// persistingTokenSource writes tokens back to disk whenever the
// underlying source refreshes them. The client built from it is shared
// by the Gmail and Calendar services, so Token may be called from
// concurrent tool invocations.
type persistingTokenSource struct {
	mgr *Manager
	src oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil || token.AccessToken != p.last.AccessToken {
		p.last = token
		if err := p.mgr.saveToken(token); err != nil {
			p.mgr.log.Warn("Failed to persist refreshed google token",
				logger.ErrorField(err))
		}
	}
	return token, nil
}

// Package auth obtains and caches OAuth2 tokens for the mailbox API
// using the installed-app loopback flow.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Flow carries the file locations and scopes for one OAuth2 session.
// The browser step binds a loopback listener on a random port, so no
// fixed redirect port needs to be free.
type Flow struct {
	CredentialsFile string
	TokenFile       string
	Scopes          []string
	Timeout         time.Duration
}

// NewFlow creates a flow with the default five minute browser timeout.
func NewFlow(credentialsFile, tokenFile string, scopes ...string) *Flow {
	return &Flow{
		CredentialsFile: credentialsFile,
		TokenFile:       tokenFile,
		Scopes:          scopes,
		Timeout:         5 * time.Minute,
	}
}

// ClientConfig parses the downloaded client credentials file.
func (f *Flow) ClientConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(f.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("could not read credentials file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, f.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("could not parse credentials file: %w", err)
	}
	return cfg, nil
}

// CachedToken reads the token cached by a previous run.
func (f *Flow) CachedToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(f.TokenFile)
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("could not parse cached token: %w", err)
	}
	return token, nil
}

// StoreToken writes the token cache, keeping it private to the user.
func (f *Flow) StoreToken(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(f.TokenFile), 0755); err != nil {
		return err
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("could not encode token: %w", err)
	}
	if err := os.WriteFile(f.TokenFile, data, 0600); err != nil {
		return fmt.Errorf("could not save token: %w", err)
	}
	return nil
}

// Token returns a usable token: the cached one when still valid, a
// refreshed one when expired, or a fresh browser authorization when the
// refresh token itself has been revoked.
func (f *Flow) Token(ctx context.Context) (*oauth2.Token, error) {
	cfg, err := f.ClientConfig()
	if err != nil {
		return nil, err
	}

	token, err := f.CachedToken()
	if err != nil {
		token, err = f.authorize(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	if !token.Valid() {
		refreshed, err := cfg.TokenSource(ctx, token).Token()
		switch {
		case err == nil:
			token = refreshed
		case isRevokedGrant(err):
			fmt.Println("\n⚠️  Your access token has expired or been revoked.")
			fmt.Println("🔐 Re-authorization is required to continue.")
			token, err = f.authorize(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("re-authorization failed: %w", err)
			}
		default:
			return nil, fmt.Errorf("token refresh failed: %w", err)
		}
	}

	if err := f.StoreToken(token); err != nil {
		return nil, err
	}
	return token, nil
}

// isRevokedGrant reports whether a refresh failure means the grant is
// gone for good rather than a transient problem.
func isRevokedGrant(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid_grant") ||
		strings.Contains(msg, "Token has been expired or revoked")
}

// authorize runs the browser flow against a loopback redirect.
func (f *Flow) authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("could not bind loopback listener: %w", err)
	}
	defer listener.Close()

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("state") != state {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				errChan <- fmt.Errorf("authorization state mismatch")
				return
			}
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "authorization code not received", http.StatusBadRequest)
				errChan <- fmt.Errorf("authorization code not received")
				return
			}
			fmt.Fprint(w, "<html><body><h2>Authorization successful</h2>"+
				"<p>You can close this window and return to the terminal.</p></body></html>")
			codeChan <- code
		}),
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	defer server.Shutdown(ctx)

	loopback := *cfg
	loopback.RedirectURL = fmt.Sprintf("http://%s", listener.Addr().String())

	authURL := loopback.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Printf("\n🔐 Authorization required\n")
	fmt.Printf("1. Open this link: %s\n", authURL)
	fmt.Printf("2. Grant access to the application\n")
	fmt.Printf("3. You will be redirected automatically\n")
	fmt.Printf("\nWaiting for authorization...\n")

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, fmt.Errorf("loopback server error: %w", err)
	case <-time.After(timeout):
		return nil, fmt.Errorf("authorization timed out after %s", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := loopback.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("could not exchange authorization code: %w", err)
	}
	fmt.Printf("✅ Authorization successful!\n")
	return token, nil
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate state token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// NewGmailService authenticates and builds the mailbox API client.
func NewGmailService(ctx context.Context, credentialsFile, tokenFile string, scopes ...string) (*gmail.Service, error) {
	flow := NewFlow(credentialsFile, tokenFile, scopes...)

	token, err := flow.Token(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := flow.ClientConfig()
	if err != nil {
		return nil, err
	}

	service, err := gmail.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("could not create mail service: %w", err)
	}
	return service, nil
}

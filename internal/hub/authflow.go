package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-panel/internal/auth"
	"github.com/nerrad567/gray-logic-panel/internal/token"
)

// Auth endpoint paths on the hub's HTTP API.
const (
	loginPath   = "/api/v1/auth/login"
	refreshPath = "/api/v1/auth/refresh"

	// defaultHTTPTimeout bounds a single auth HTTP exchange.
	defaultHTTPTimeout = 10 * time.Second
)

// Credentials are the panel's login credentials for the hub.
type Credentials struct {
	PanelID string
	Secret  string
}

// AuthFlow implements auth.Flow and auth.Refresher against the hub's HTTP
// auth API.
//
// Obtain prefers the stored token (supplied via the flow options, already
// origin-validated by the token store). Without one it needs an explicit
// host to log in against; until the Manager supplies it, the flow signals
// auth.ErrHostRequired rather than guessing.
type AuthFlow struct {
	http   *http.Client
	creds  Credentials
	logger Logger
}

// NewAuthFlow creates an auth flow using the given panel credentials.
func NewAuthFlow(creds Credentials) *AuthFlow {
	return &AuthFlow{
		http:   &http.Client{Timeout: defaultHTTPTimeout},
		creds:  creds,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the flow.
func (f *AuthFlow) SetLogger(logger Logger) {
	f.logger = logger
}

// SetHTTPClient replaces the HTTP client (used by tests).
func (f *AuthFlow) SetHTTPClient(client *http.Client) {
	f.http = client
}

// Obtain implements auth.Flow.
//
// With a stored token the session is built directly around it. Without
// one, an explicit host is required to run the credential login; the
// distinguished auth.ErrHostRequired signal asks the Manager to retry
// with the host supplied.
func (f *AuthFlow) Obtain(ctx context.Context, opts auth.FlowOptions) (*auth.Session, error) {
	tok, err := opts.LoadToken(ctx)
	if err != nil {
		return nil, err
	}

	if tok == nil {
		if opts.Host == "" {
			return nil, auth.ErrHostRequired
		}

		tok, err = f.login(ctx, opts.Host)
		if err != nil {
			return nil, err
		}
		if opts.SaveToken != nil {
			if err := opts.SaveToken(ctx, tok); err != nil {
				return nil, fmt.Errorf("persisting issued token: %w", err)
			}
		}
		f.logger.Debug("logged in to hub", "host", opts.Host)
	}

	return auth.NewSession(tok, f, opts.SaveToken), nil
}

// login exchanges the panel credentials for a token pair.
func (f *AuthFlow) login(ctx context.Context, hostURL string) (*token.Token, error) {
	body := map[string]string{
		"panel_id": f.creds.PanelID,
		"secret":   f.creds.Secret,
	}

	var resp tokenResponse
	if err := f.post(ctx, strings.TrimSuffix(hostURL, "/")+loginPath, body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	return tokenFromResponse(resp, hostURL), nil
}

// Refresh implements auth.Refresher: it exchanges the refresh token for a
// fresh pair against the hub the token was issued for.
func (f *AuthFlow) Refresh(ctx context.Context, tok *token.Token) (*token.Token, error) {
	body := map[string]string{
		"refresh_token": tok.RefreshToken,
	}

	var resp tokenResponse
	if err := f.post(ctx, strings.TrimSuffix(tok.HubURL, "/")+refreshPath, body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	f.logger.Debug("hub token refreshed", "host", tok.HubURL)
	return tokenFromResponse(resp, tok.HubURL), nil
}

// post performs a JSON POST and decodes the response into out.
func (f *AuthFlow) post(ctx context.Context, endpoint string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting to hub: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read side only

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hub returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// tokenFromResponse builds a Token from the hub's response, deriving the
// expiry from the access token's exp claim when the hub omits expires_in.
func tokenFromResponse(resp tokenResponse, hostURL string) *token.Token {
	tok := &token.Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		HubURL:       hostURL,
	}

	if resp.ExpiresIn > 0 {
		tok.ExpiresAt = time.Now().UTC().Add(time.Duration(resp.ExpiresIn) * time.Second)
	} else if exp, ok := token.ExpiryFromJWT(resp.AccessToken); ok {
		tok.ExpiresAt = exp
	}

	return tok
}

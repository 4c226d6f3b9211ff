package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-panel/internal/auth"
	"github.com/nerrad567/gray-logic-panel/internal/token"
)

// newAuthServer stands up a fake hub auth HTTP API.
func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body["panel_id"] != "panel-01" || body["secret"] != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(tokenResponse{ //nolint:errcheck // test server
			AccessToken:  "issued-access",
			RefreshToken: "issued-refresh",
			ExpiresIn:    3600,
		})
	})
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body["refresh_token"] != "issued-refresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(tokenResponse{ //nolint:errcheck // test server
			AccessToken:  "renewed-access",
			RefreshToken: "renewed-refresh",
			ExpiresIn:    3600,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func flowOpts(host string, stored *token.Token) (auth.FlowOptions, *[]*token.Token) {
	var saved []*token.Token
	return auth.FlowOptions{
		Host: host,
		LoadToken: func(_ context.Context) (*token.Token, error) {
			return stored, nil
		},
		SaveToken: func(_ context.Context, tok *token.Token) error {
			saved = append(saved, tok)
			return nil
		},
	}, &saved
}

func TestAuthFlow_HostRequiredWithoutToken(t *testing.T) {
	flow := NewAuthFlow(Credentials{PanelID: "panel-01", Secret: "s3cret"})

	opts, _ := flowOpts("", nil)
	_, err := flow.Obtain(context.Background(), opts)
	if !errors.Is(err, auth.ErrHostRequired) {
		t.Errorf("Obtain() error = %v, want ErrHostRequired", err)
	}
}

func TestAuthFlow_StoredTokenSkipsLogin(t *testing.T) {
	flow := NewAuthFlow(Credentials{PanelID: "panel-01", Secret: "s3cret"})

	stored := &token.Token{
		AccessToken: "stored-access",
		HubURL:      "https://hub.local",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	opts, saved := flowOpts("", stored)

	sess, err := flow.Obtain(context.Background(), opts)
	if err != nil {
		t.Fatalf("Obtain() error = %v", err)
	}
	if sess.Token().AccessToken != "stored-access" {
		t.Errorf("session token = %q, want the stored token", sess.Token().AccessToken)
	}
	if len(*saved) != 0 {
		t.Errorf("stored-token path persisted %d tokens, want 0", len(*saved))
	}
}

func TestAuthFlow_LoginIssuesAndPersists(t *testing.T) {
	srv := newAuthServer(t)
	flow := NewAuthFlow(Credentials{PanelID: "panel-01", Secret: "s3cret"})

	opts, saved := flowOpts(srv.URL, nil)
	sess, err := flow.Obtain(context.Background(), opts)
	if err != nil {
		t.Fatalf("Obtain() error = %v", err)
	}

	tok := sess.Token()
	if tok.AccessToken != "issued-access" || tok.RefreshToken != "issued-refresh" {
		t.Errorf("issued token = %+v", tok)
	}
	if tok.HubURL != srv.URL {
		t.Errorf("token HubURL = %q, want %q", tok.HubURL, srv.URL)
	}
	if tok.ExpiresAt.IsZero() {
		t.Error("token has no expiry despite expires_in")
	}
	if len(*saved) != 1 {
		t.Fatalf("persisted %d tokens, want 1", len(*saved))
	}
}

func TestAuthFlow_LoginRejected(t *testing.T) {
	srv := newAuthServer(t)
	flow := NewAuthFlow(Credentials{PanelID: "panel-01", Secret: "wrong"})

	opts, _ := flowOpts(srv.URL, nil)
	_, err := flow.Obtain(context.Background(), opts)
	if !errors.Is(err, ErrLoginFailed) {
		t.Errorf("Obtain() error = %v, want ErrLoginFailed", err)
	}
}

func TestAuthFlow_Refresh(t *testing.T) {
	srv := newAuthServer(t)
	flow := NewAuthFlow(Credentials{PanelID: "panel-01", Secret: "s3cret"})

	stale := &token.Token{
		AccessToken:  "issued-access",
		RefreshToken: "issued-refresh",
		HubURL:       srv.URL,
	}

	renewed, err := flow.Refresh(context.Background(), stale)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if renewed.AccessToken != "renewed-access" || renewed.RefreshToken != "renewed-refresh" {
		t.Errorf("renewed token = %+v", renewed)
	}
	if renewed.HubURL != srv.URL {
		t.Errorf("renewed HubURL = %q, want %q", renewed.HubURL, srv.URL)
	}
}

func TestAuthFlow_RefreshRejected(t *testing.T) {
	srv := newAuthServer(t)
	flow := NewAuthFlow(Credentials{PanelID: "panel-01", Secret: "s3cret"})

	stale := &token.Token{RefreshToken: "revoked", HubURL: srv.URL}
	_, err := flow.Refresh(context.Background(), stale)
	if !errors.Is(err, ErrRefreshFailed) {
		t.Errorf("Refresh() error = %v, want ErrRefreshFailed", err)
	}
}

func TestTokenFromResponse_JWTFallback(t *testing.T) {
	// Hub omits expires_in; the expiry comes from the JWT's exp claim.
	// Opaque tokens without a claim yield a non-expiring token.
	resp := tokenResponse{AccessToken: "opaque", RefreshToken: "r"}
	tok := tokenFromResponse(resp, "https://hub.local")
	if !tok.ExpiresAt.IsZero() {
		t.Errorf("opaque token ExpiresAt = %v, want zero", tok.ExpiresAt)
	}
}

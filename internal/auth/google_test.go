package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newFakeGoogle(t *testing.T) (*GoogleOAuthProvider, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			http.Error(w, "bad grant type", http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-access-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"sub":     "1182345678",
			"email":   "reader@example.com",
			"name":    "Reader Example",
			"picture": "https://example.com/photo.jpg",
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	provider := NewGoogleOAuthProvider(GoogleOAuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://app.example.com/auth/google/callback",
		AuthURL:      server.URL + "/auth",
		TokenURL:     server.URL + "/token",
		UserInfoURL:  server.URL + "/userinfo",
	})
	return provider, server
}

func TestGetLoginURL(t *testing.T) {
	provider, server := newFakeGoogle(t)

	loginURL := provider.GetLoginURL("state-123")
	if !strings.HasPrefix(loginURL, server.URL+"/auth?") {
		t.Fatalf("login URL %q does not use the configured auth endpoint", loginURL)
	}

	parsed, err := url.Parse(loginURL)
	if err != nil {
		t.Fatalf("failed to parse login URL: %v", err)
	}
	query := parsed.Query()
	if query.Get("client_id") != "client-id" {
		t.Errorf("client_id = %q", query.Get("client_id"))
	}
	if query.Get("state") != "state-123" {
		t.Errorf("state = %q", query.Get("state"))
	}
	if query.Get("scope") != "openid email profile" {
		t.Errorf("scope = %q", query.Get("scope"))
	}
	if query.Get("response_type") != "code" {
		t.Errorf("response_type = %q", query.Get("response_type"))
	}
}

func TestExchangeCode(t *testing.T) {
	provider, _ := newFakeGoogle(t)

	t.Run("valid code yields the profile", func(t *testing.T) {
		profile, err := provider.ExchangeCode(context.Background(), "good-code")
		if err != nil {
			t.Fatalf("ExchangeCode() error = %v", err)
		}
		if profile.Sub != "1182345678" {
			t.Errorf("Sub = %q", profile.Sub)
		}
		if profile.Email != "reader@example.com" {
			t.Errorf("Email = %q", profile.Email)
		}
	})

	t.Run("rejected code returns an error", func(t *testing.T) {
		if _, err := provider.ExchangeCode(context.Background(), "bad-code"); err == nil {
			t.Error("expected an error for a rejected code")
		}
	})
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/forcegate/forcegate/internal/config"
	"github.com/forcegate/forcegate/internal/salesforce"
	"github.com/forcegate/forcegate/internal/session"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:            config.EnvTest,
		SessionSecret:     "unit-test-secret",
		SessionStore:      config.StoreMemory,
		OAuthClientID:     "test-client-id",
		OAuthClientSecret: "test-client-secret",
		OAuthRedirectURL:  "http://localhost:3000/auth/callback",
		LoginURL:          "https://login.example.com",
		APIVersion:        "v59.0",
	}
}

func newTestRouter(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := testConfig()
	upstream := salesforce.New(salesforce.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
		LoginURL:     cfg.LoginURL,
		APIVersion:   cfg.APIVersion,
	})
	mux := http.NewServeMux()
	RegisterRoutes(mux, "/auth", cfg, session.NewMemoryStore(), upstream)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestLoginHandler(t *testing.T) {
	server := newTestRouter(t)

	resp, err := noRedirectClient().Get(server.URL + "/auth/login")
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	target, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("unparseable redirect target: %v", err)
	}
	if target.Host != "login.example.com" || target.Path != "/services/oauth2/authorize" {
		t.Errorf("unexpected redirect target: %s", target)
	}
	if target.Query().Get("scope") != "api" {
		t.Errorf("expected scope=api, got %q", target.Query().Get("scope"))
	}
}

func TestCallbackHandlerMissingCode(t *testing.T) {
	server := newTestRouter(t)

	resp, err := http.Get(server.URL + "/auth/callback")
	if err != nil {
		t.Fatalf("callback request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing code, got %d", resp.StatusCode)
	}
}

func TestLogoutHandlerUnauthenticated(t *testing.T) {
	server := newTestRouter(t)

	resp, err := noRedirectClient().Get(server.URL + "/auth/logout")
	if err != nil {
		t.Fatalf("logout request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestWhoAmIHandlerUnauthenticated(t *testing.T) {
	server := newTestRouter(t)

	resp, err := http.Get(server.URL + "/auth/whoami")
	if err != nil {
		t.Fatalf("whoami request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

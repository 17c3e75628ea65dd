package salesforce

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/forcegate/forcegate/internal/session"
)

func testClient(loginURL string) *Client {
	return New(Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://localhost:3000/auth/callback",
		LoginURL:     loginURL,
		APIVersion:   "v59.0",
	})
}

func TestAuthCodeURL(t *testing.T) {
	c := testClient("https://login.example.com")
	raw := c.AuthCodeURL()

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("AuthCodeURL returned unparseable URL: %v", err)
	}
	if u.Host != "login.example.com" || u.Path != "/services/oauth2/authorize" {
		t.Errorf("unexpected authorize endpoint: %s", raw)
	}
	q := u.Query()
	if q.Get("scope") != "api" {
		t.Errorf("expected scope=api, got %q", q.Get("scope"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("expected response_type=code, got %q", q.Get("response_type"))
	}
	if q.Get("client_id") != "test-client-id" {
		t.Errorf("expected client_id in URL, got %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "http://localhost:3000/auth/callback" {
		t.Errorf("expected redirect_uri in URL, got %q", q.Get("redirect_uri"))
	}
}

func TestExchange(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/oauth2/token" {
			t.Errorf("unexpected token path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse token form: %v", err)
		}
		if r.Form.Get("grant_type") != "authorization_code" {
			t.Errorf("expected authorization_code grant, got %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("code") != "test-code" {
			t.Errorf("expected code=test-code, got %q", r.Form.Get("code"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "00Dxx!token",
			"token_type": "Bearer",
			"instance_url": "https://na1.example.com",
			"id": "https://login.example.com/id/00Dx/005x",
			"issued_at": "1278448832702",
			"signature": "sigsig"
		}`))
	}))
	defer upstream.Close()

	c := testClient(upstream.URL)
	cred, err := c.Exchange(context.Background(), "test-code")
	if err != nil {
		t.Fatalf("Exchange error: %v", err)
	}
	want := session.Credential{
		AccessToken: "00Dxx!token",
		TokenType:   "Bearer",
		InstanceURL: "https://na1.example.com",
		IdentityURL: "https://login.example.com/id/00Dx/005x",
		IssuedAt:    "1278448832702",
		Signature:   "sigsig",
	}
	if *cred != want {
		t.Fatalf("credential mismatch: got %+v", cred)
	}
}

func TestExchangeUpstreamError(t *testing.T) {
	payload := `{"error":"invalid_grant","error_description":"expired authorization code"}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(payload))
	}))
	defer upstream.Close()

	c := testClient(upstream.URL)
	_, err := c.Exchange(context.Background(), "stale-code")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Op != "exchange" || ue.StatusCode != http.StatusBadRequest {
		t.Errorf("unexpected error details: %+v", ue)
	}
	if string(ue.Body) != payload {
		t.Errorf("expected upstream payload preserved, got %s", ue.Body)
	}
}

func TestRevoke(t *testing.T) {
	var gotToken string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/oauth2/revoke" {
			t.Errorf("unexpected revoke path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse revoke form: %v", err)
		}
		gotToken = r.Form.Get("token")
	}))
	defer upstream.Close()

	c := testClient("https://login.example.com")
	cred := &session.Credential{AccessToken: "tok-1", TokenType: "Bearer", InstanceURL: upstream.URL}
	if err := c.Revoke(context.Background(), cred); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if gotToken != "tok-1" {
		t.Fatalf("expected revoked token tok-1, got %q", gotToken)
	}
}

func TestRevokeUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("revocation backend down"))
	}))
	defer upstream.Close()

	c := testClient("https://login.example.com")
	cred := &session.Credential{AccessToken: "tok-1", InstanceURL: upstream.URL}
	err := c.Revoke(context.Background(), cred)
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Op != "revoke" || ue.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("unexpected error details: %+v", ue)
	}
}

func TestIdentityPassThrough(t *testing.T) {
	profile := `{"user_id":"005x","display_name":"Test User"}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(profile))
	}))
	defer upstream.Close()

	c := testClient("https://login.example.com")
	cred := &session.Credential{AccessToken: "tok-1", TokenType: "Bearer", IdentityURL: upstream.URL + "/id/00Dx/005x"}
	body, contentType, err := c.Identity(context.Background(), cred)
	if err != nil {
		t.Fatalf("Identity error: %v", err)
	}
	if string(body) != profile {
		t.Errorf("expected profile body verbatim, got %s", body)
	}
	if contentType != "application/json" {
		t.Errorf("expected upstream content type preserved, got %q", contentType)
	}
}

func TestQueryEncoding(t *testing.T) {
	const soql = "SELECT Id, Name FROM Account WHERE Name = 'Acme & Sons'"
	result := `{"totalSize":1,"records":[{"Id":"001x"}]}`

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/data/v59.0/query" {
			t.Errorf("unexpected query path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != soql {
			t.Errorf("forwarded query mismatch: got %q", got)
		}
		if !strings.Contains(r.URL.RawQuery, url.QueryEscape(soql)) {
			t.Errorf("expected percent-encoded query in %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(result))
	}))
	defer upstream.Close()

	c := testClient("https://login.example.com")
	cred := &session.Credential{AccessToken: "tok-1", TokenType: "Bearer", InstanceURL: upstream.URL}
	body, contentType, err := c.Query(context.Background(), cred, soql)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if string(body) != result {
		t.Errorf("expected result body verbatim, got %s", body)
	}
	if contentType != "application/json" {
		t.Errorf("expected upstream content type, got %q", contentType)
	}
}

func TestQueryUpstreamError(t *testing.T) {
	payload := `[{"errorCode":"MALFORMED_QUERY","message":"unexpected token"}]`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(payload))
	}))
	defer upstream.Close()

	c := testClient("https://login.example.com")
	cred := &session.Credential{AccessToken: "tok-1", InstanceURL: upstream.URL}
	_, _, err := c.Query(context.Background(), cred, "SELECT bogus")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if string(ue.Body) != payload {
		t.Errorf("expected upstream payload preserved, got %s", ue.Body)
	}
}

package web

import (
	"errors"
	"net/http/httptest"
	"testing"
)

var testSecret = []byte("test-session-secret")

func TestSessionCookieRoundTrip(t *testing.T) {
	rr := httptest.NewRecorder()
	if err := SetSessionCookie(rr, "sess-123", testSecret, true); err != nil {
		t.Fatalf("SetSessionCookie error: %v", err)
	}
	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	id, err := SessionIDFromRequest(req, testSecret)
	if err != nil {
		t.Fatalf("SessionIDFromRequest error: %v", err)
	}
	if id != "sess-123" {
		t.Fatalf("expected session ID sess-123, got %s", id)
	}
}

func TestSessionCookieWrongSecret(t *testing.T) {
	rr := httptest.NewRecorder()
	if err := SetSessionCookie(rr, "sess-123", testSecret, true); err != nil {
		t.Fatalf("SetSessionCookie error: %v", err)
	}
	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	if _, err := SessionIDFromRequest(req, []byte("other-secret")); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for tampered signature, got %v", err)
	}
}

func TestSessionCookieMissing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, err := SessionIDFromRequest(req, testSecret); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestClearSessionCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	ClearSessionCookie(rr, true)
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge != -1 || cookies[0].Value != "" {
		t.Fatalf("expected expired empty cookie, got %+v", cookies[0])
	}
}

func TestSecureFlagFollowsEnv(t *testing.T) {
	rr := httptest.NewRecorder()
	if err := SetSessionCookie(rr, "sess-123", testSecret, false); err != nil {
		t.Fatalf("SetSessionCookie error: %v", err)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || !cookies[0].Secure {
		t.Fatal("production cookie should carry the Secure flag")
	}
}

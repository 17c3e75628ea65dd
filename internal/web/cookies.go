// Package web provides HTTP cookie handling for the gateway session.
//
// The cookie carries only a signed session identifier. The OAuth credential
// itself stays server-side in the session store and is never written to the
// browser.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const sessionCookieName = "fg_session"

// ErrNoSession indicates the request carries no usable session cookie.
// A missing cookie and a cookie that fails signature verification are
// treated the same way.
var ErrNoSession = errors.New("no session cookie")

// SetSessionCookie binds the session identifier to the browser. The value is
// a compact HS256 JWT signed with the session secret, so a client cannot
// forge or swap session identifiers.
func SetSessionCookie(w http.ResponseWriter, sessionID string, secret []byte, isDev bool) error {
	tok, err := jwt.NewBuilder().
		Subject(sessionID).
		IssuedAt(time.Now()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build session token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, secret))
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    string(signed),
		Path:     "/",
		HttpOnly: true,
		Secure:   !isDev,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !isDev,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionIDFromRequest verifies the session cookie and returns the session
// identifier it carries.
func SessionIDFromRequest(r *http.Request, secret []byte) (string, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", ErrNoSession
	}
	tok, err := jwt.Parse([]byte(cookie.Value), jwt.WithKey(jwa.HS256, secret), jwt.WithValidate(true))
	if err != nil {
		return "", ErrNoSession
	}
	if tok.Subject() == "" {
		return "", ErrNoSession
	}
	return tok.Subject(), nil
}

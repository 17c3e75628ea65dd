// Package session holds server-side session state and the credential bound to it.
// OAuth tokens live only here; they are never written to the browser.
package session

import (
	"context"
	"errors"
	"time"
)

// Session state errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnauthenticated = errors.New("session has no credential")
)

// Credential is the token record obtained from the upstream code exchange.
// It is immutable once stored: re-authentication replaces it wholesale,
// logout clears it wholesale.
type Credential struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	InstanceURL string `json:"instance_url"`
	IdentityURL string `json:"id,omitempty"`
	IssuedAt    string `json:"issued_at,omitempty"`
	Signature   string `json:"signature,omitempty"`
}

// Session is server-side state bound to a client via an opaque identifier.
// A session holds at most one credential; a session without one is
// unauthenticated.
type Session struct {
	ID         string
	Credential *Credential
	CreatedAt  time.Time
}

// Authenticated reports whether the session holds a credential.
func (s *Session) Authenticated() bool {
	return s != nil && s.Credential != nil
}

// RequireCredential returns the session's credential, or ErrUnauthenticated
// when the slot is empty. Callers map the error to HTTP 401 and stop; no
// upstream call may be made for an unauthenticated session.
func RequireCredential(s *Session) (*Credential, error) {
	if !s.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.Credential, nil
}

// Store owns all session state. Implementations synchronize internally, so a
// session is never observed half-destroyed; concurrent requests on the same
// session are otherwise uncoordinated (a query racing a logout keeps the
// credential snapshot it already read, and the next request sees the
// destroyed session).
type Store interface {
	// Get retrieves the session with the given identifier.
	// Returns ErrSessionNotFound when no such session exists.
	Get(ctx context.Context, id string) (*Session, error)

	// Create mints a new, unauthenticated session.
	Create(ctx context.Context) (*Session, error)

	// SetCredential replaces any existing credential on the session.
	SetCredential(ctx context.Context, id string, cred *Credential) error

	// Destroy removes all state for the session. Destroying an unknown
	// session is not an error.
	Destroy(ctx context.Context, id string) error
}

// Package salesforce implements the upstream OAuth and REST client the
// gateway delegates to: authorization-code exchange, token revocation,
// identity lookup and SOQL query forwarding.
package salesforce

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/forcegate/forcegate/internal/logger"
	"github.com/forcegate/forcegate/internal/session"
	"golang.org/x/oauth2"
)

// Upstream OAuth/REST paths relative to the login and instance hosts.
const (
	authorizePath = "/services/oauth2/authorize"
	tokenPath     = "/services/oauth2/token"
	revokePath    = "/services/oauth2/revoke"
	queryPathFmt  = "/services/data/%s/query"
)

// Scope requested on login; sufficient for subsequent data access.
const scope = "api"

// Config holds the settings needed to talk to the upstream service.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	LoginURL     string
	APIVersion   string

	// HTTPClient is used for all upstream calls. Defaults to
	// http.DefaultClient; inject a client with a transport timeout if one
	// is wanted (the gateway adds neither retries nor timeouts itself).
	HTTPClient *http.Client
}

// Client performs authenticated calls against the upstream service.
type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	loginURL   string
	apiVersion string
}

// New creates an upstream client from the given configuration.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	loginURL := strings.TrimSuffix(cfg.LoginURL, "/")
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   loginURL + authorizePath,
				TokenURL:  loginURL + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		loginURL:   loginURL,
		apiVersion: cfg.APIVersion,
	}
}

// AuthCodeURL returns the external authorization URL the browser is
// redirected to at login.
func (c *Client) AuthCodeURL() string {
	return c.oauth.AuthCodeURL("")
}

// Exchange trades a one-time authorization code for a credential.
func (c *Client) Exchange(ctx context.Context, code string) (*session.Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, &UpstreamError{
				Op:          "exchange",
				StatusCode:  retrieveErr.Response.StatusCode,
				Body:        retrieveErr.Body,
				ContentType: retrieveErr.Response.Header.Get("Content-Type"),
			}
		}
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	cred := &session.Credential{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		InstanceURL: extraString(token, "instance_url"),
		IdentityURL: extraString(token, "id"),
		IssuedAt:    extraString(token, "issued_at"),
		Signature:   extraString(token, "signature"),
	}
	if cred.InstanceURL == "" {
		return nil, errors.New("token response missing instance_url")
	}
	return cred, nil
}

// Revoke invalidates the credential with the upstream authorization server.
// Callers treat failure as best-effort: it is logged, never propagated into
// the client-visible logout flow.
func (c *Client) Revoke(ctx context.Context, cred *session.Credential) error {
	host := strings.TrimSuffix(cred.InstanceURL, "/")
	if host == "" {
		host = c.loginURL
	}
	form := url.Values{"token": {cred.AccessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host+revokePath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &UpstreamError{
			Op:          "revoke",
			StatusCode:  resp.StatusCode,
			Body:        body,
			ContentType: resp.Header.Get("Content-Type"),
		}
	}
	return nil
}

// Identity fetches the authenticated user's profile from the identity URL
// that the token exchange returned. The body is passed back verbatim.
func (c *Client) Identity(ctx context.Context, cred *session.Credential) ([]byte, string, error) {
	return c.get(ctx, "identity", cred, cred.IdentityURL)
}

// Query forwards a SOQL query string to the upstream data API using the
// stored credential. The query is percent-encoded into the request URL; the
// response body is passed back verbatim, unparsed.
func (c *Client) Query(ctx context.Context, cred *session.Credential, q string) ([]byte, string, error) {
	target := strings.TrimSuffix(cred.InstanceURL, "/") +
		fmt.Sprintf(queryPathFmt, c.apiVersion) +
		"?q=" + url.QueryEscape(q)
	return c.get(ctx, "query", cred, target)
}

// get performs an authenticated GET and returns the raw body and content
// type. A non-2xx response becomes an UpstreamError carrying the payload.
func (c *Client) get(ctx context.Context, op string, cred *session.Credential, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", authHeader(cred))

	logger.Debug("Upstream request", "op", op, "url", target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%s request failed: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s response: %w", op, err)
	}
	contentType := resp.Header.Get("Content-Type")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &UpstreamError{
			Op:          op,
			StatusCode:  resp.StatusCode,
			Body:        body,
			ContentType: contentType,
		}
	}
	return body, contentType, nil
}

func authHeader(cred *session.Credential) string {
	tokenType := cred.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return tokenType + " " + cred.AccessToken
}

func extraString(token *oauth2.Token, key string) string {
	if v, ok := token.Extra(key).(string); ok {
		return v
	}
	return ""
}

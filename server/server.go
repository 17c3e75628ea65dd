// Package server assembles the gateway's HTTP surface and runs it.
package server

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/forcegate/forcegate/internal/config"
	"github.com/forcegate/forcegate/internal/logger"
	"github.com/forcegate/forcegate/internal/salesforce"
	"github.com/forcegate/forcegate/internal/session"
	auth "github.com/forcegate/forcegate/server/auth-handlers"
	health "github.com/forcegate/forcegate/server/health-handlers"
	query "github.com/forcegate/forcegate/server/query-handlers"
)

//go:embed static
var staticFS embed.FS

// NewHandler builds the gateway's full HTTP handler. Exposed separately from
// Start so tests can run it against httptest servers.
func NewHandler(cfg *config.Config, store session.Store, upstream *salesforce.Client) http.Handler {
	mux := http.NewServeMux()

	auth.RegisterRoutes(mux, "/auth", cfg, store, upstream)
	query.RegisterRoutes(mux, cfg, store, upstream)
	health.RegisterRoutes(mux, "", cfg)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The embedded tree always contains static/; this is unreachable
		// short of a broken build.
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(static)))

	return mux
}

// NewStore builds the session store selected by configuration.
func NewStore(cfg *config.Config) (session.Store, error) {
	switch cfg.SessionStore {
	case config.StoreSQL:
		return session.OpenSQLStore(cfg.DatabaseURL)
	case config.StoreMemory:
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session store backend: %s", cfg.SessionStore)
	}
}

// Start runs the gateway until the listener fails.
func Start(cfg *config.Config) error {
	store, err := NewStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	upstream := salesforce.New(salesforce.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
		LoginURL:     cfg.LoginURL,
		APIVersion:   cfg.APIVersion,
	})

	handler := NewHandler(cfg, store, upstream)

	addr := ":" + cfg.Port
	logger.Info("Gateway listening", "addr", addr, "env", cfg.AppEnv, "sessionStore", cfg.SessionStore)
	return http.ListenAndServe(addr, handler)
}

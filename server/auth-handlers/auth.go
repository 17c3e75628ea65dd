// Package auth implements the OAuth flow endpoints: login redirect,
// authorization-code callback, logout and identity lookup.
package auth

import (
	"errors"
	"net/http"

	"github.com/forcegate/forcegate/internal/config"
	"github.com/forcegate/forcegate/internal/httputil"
	"github.com/forcegate/forcegate/internal/logger"
	"github.com/forcegate/forcegate/internal/middleware"
	"github.com/forcegate/forcegate/internal/salesforce"
	"github.com/forcegate/forcegate/internal/session"
	"github.com/forcegate/forcegate/internal/svrlib"
	"github.com/forcegate/forcegate/internal/web"
)

// mainPage is where the browser lands after callback and logout.
const mainPage = "/index.html"

// AuthRouter handles the /auth/* endpoints.
type AuthRouter struct {
	*svrlib.Router
	store    session.Store
	upstream *salesforce.Client
}

// RegisterRoutes registers all /auth/* routes on the given mux, with the prefix handled by the caller.
func RegisterRoutes(mux *http.ServeMux, prefix string, cfg *config.Config, store session.Store, upstream *salesforce.Client) *AuthRouter {
	router := &AuthRouter{
		Router:   svrlib.NewRouter(mux, prefix, cfg),
		store:    store,
		upstream: upstream,
	}
	loader := middleware.SessionLoader(store, []byte(cfg.SessionSecret))
	mux.HandleFunc(prefix+"/login", router.LoginHandler)
	mux.HandleFunc(prefix+"/callback", router.CallbackHandler)
	mux.Handle(prefix+"/logout", middleware.ApplyFunc(router.LogoutHandler, loader))
	mux.Handle(prefix+"/whoami", middleware.ApplyFunc(router.WhoAmIHandler, loader))
	return router
}

// LoginHandler redirects the browser to the external authorization page.
// No session is created at this step; the session is minted on callback.
func (rt *AuthRouter) LoginHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, rt.upstream.AuthCodeURL(), http.StatusFound)
}

// CallbackHandler exchanges the one-time authorization code for a
// credential, binds it to a fresh session, and sends the browser to the
// main page.
func (rt *AuthRouter) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	if code == "" {
		// A missing code is answered with 500, not 400, matching the
		// gateway's historical behavior. /query's missing-parameter
		// check has the 400 this one lacks.
		httputil.WriteError(w, http.StatusInternalServerError, "Missing authorization code")
		return
	}

	cred, err := rt.upstream.Exchange(ctx, code)
	if err != nil {
		writeUpstream(w, err, "exchange")
		return
	}

	sess, err := rt.store.Create(ctx)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to create session", "error", err)
		return
	}
	if err := rt.store.SetCredential(ctx, sess.ID, cred); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to store credential", "error", err)
		return
	}
	if err := web.SetSessionCookie(w, sess.ID, []byte(rt.Config.SessionSecret), rt.Config.IsDev()); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to set session cookie", "error", err)
		return
	}

	logger.Info("Authenticated session established", "sessionID", sess.ID, "instance", cred.InstanceURL)
	http.Redirect(w, r, mainPage, http.StatusFound)
}

// LogoutHandler revokes the credential best-effort and destroys the local
// session. Revocation or destruction failures are logged, never surfaced:
// the redirect to the main page always completes.
func (rt *AuthRouter) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, _ := middleware.GetSession(r)
	cred, err := session.RequireCredential(sess)
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := rt.upstream.Revoke(ctx, cred); err != nil {
		logger.Error("Upstream token revocation failed", "error", err, "sessionID", sess.ID)
	}
	if err := rt.store.Destroy(ctx, sess.ID); err != nil {
		logger.Error("Failed to destroy session", "error", err, "sessionID", sess.ID)
	}
	web.ClearSessionCookie(w, rt.Config.IsDev())

	http.Redirect(w, r, mainPage, http.StatusFound)
}

// WhoAmIHandler returns the upstream user profile for the authenticated
// session, passed through verbatim.
func (rt *AuthRouter) WhoAmIHandler(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r)
	cred, err := session.RequireCredential(sess)
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	body, contentType, err := rt.upstream.Identity(r.Context(), cred)
	if err != nil {
		writeUpstream(w, err, "identity")
		return
	}

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if _, err := w.Write(body); err != nil {
		logger.Error("Failed to write identity response", "error", err)
	}
}

// writeUpstream maps an upstream failure to a 500, passing the upstream
// error payload through when one exists.
func writeUpstream(w http.ResponseWriter, err error, op string) {
	var ue *salesforce.UpstreamError
	if errors.As(err, &ue) {
		httputil.WriteUpstreamError(w, ue.Body, ue.ContentType, "op", ue.Op, "upstreamStatus", ue.StatusCode)
		return
	}
	httputil.WriteError(w, http.StatusInternalServerError, err.Error(), "op", op)
}
